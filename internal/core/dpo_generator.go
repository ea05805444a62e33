// ABOUTME: DPOGenerator grows a preference tree per dialogue by bounded-branching DFS
// ABOUTME: Scores rules per turn, branches into the best ties, stores every node and descends into one
package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/ids"
	"github.com/harper/pedagogy/internal/logging"
	"github.com/harper/pedagogy/internal/metrics"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

// Oracle scores and applies pedagogical rules. Score must return a value
// in [1,5]; conversation holds the preference turns chosen so far.
type Oracle interface {
	Score(ctx context.Context, rule models.Rule, conversation []models.DPOTurn, upcoming models.Turn) (int, error)
	Rewrite(ctx context.Context, rule models.Rule, last *models.DPOTurn, upcoming models.Turn) (question, answer string, err error)
}

// Negator writes an answer that deliberately ignores a rule
type Negator interface {
	Negate(ctx context.Context, rule models.Rule, positive string) (string, error)
}

// Negative answer policies
const (
	NegativeOriginal    = "original"
	NegativeAdversarial = "adversarial"
)

// Score bounds accepted from the oracle
const (
	MinOracleScore = 1
	MaxOracleScore = 5
)

// DPOOptions configures a DPOGenerator
type DPOOptions struct {
	// Branching is the most children created under one node
	Branching int
	// RecencyWindow is how many trailing path turns suppress a rule
	RecencyWindow int
	// MinScore is the lowest score that makes a rule applicable
	MinScore       int
	NegativePolicy string
	Rand           *rand.Rand
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Progress       func(done, total int)
}

// DefaultDPOOptions returns K=3, a 3-turn recency window and a minimum score of 4
func DefaultDPOOptions() DPOOptions {
	return DPOOptions{
		Branching:      3,
		RecencyWindow:  3,
		MinScore:       4,
		NegativePolicy: NegativeOriginal,
	}
}

// DPOReport summarises one generation run
type DPOReport struct {
	Dialogues int
	Written   int
	Skipped   int
	Abandoned int
}

// DPOGenerator owns the DPO store while generating
type DPOGenerator struct {
	oracle    Oracle
	negator   Negator
	rules     *models.Rules
	dialogues *storage.Collection[models.Dialogue]
	store     *storage.DPOCollection
	opts      DPOOptions
	rand      *rand.Rand
	logger    *zap.Logger
}

// NewDPOGenerator creates a generator. The adversarial policy requires an
// oracle that also implements Negator.
func NewDPOGenerator(oracle Oracle, rules *models.Rules, dialogues *storage.Collection[models.Dialogue], store *storage.DPOCollection, opts DPOOptions) (*DPOGenerator, error) {
	if opts.Branching < 1 {
		return nil, fmt.Errorf("branching must be at least 1, got %d", opts.Branching)
	}
	if opts.RecencyWindow < 0 {
		return nil, fmt.Errorf("recency window must not be negative, got %d", opts.RecencyWindow)
	}
	if opts.MinScore < MinOracleScore || opts.MinScore > MaxOracleScore {
		return nil, fmt.Errorf("minimum score must be within [%d,%d], got %d", MinOracleScore, MaxOracleScore, opts.MinScore)
	}

	g := &DPOGenerator{
		oracle:    oracle,
		rules:     rules,
		dialogues: dialogues,
		store:     store,
		opts:      opts,
		rand:      opts.Rand,
		logger:    logging.OrNop(opts.Logger),
	}

	switch opts.NegativePolicy {
	case "", NegativeOriginal:
	case NegativeAdversarial:
		negator, ok := oracle.(Negator)
		if !ok {
			return nil, fmt.Errorf("negative policy %q needs an oracle that can negate answers", NegativeAdversarial)
		}
		g.negator = negator
	default:
		return nil, fmt.Errorf("unknown negative policy %q", opts.NegativePolicy)
	}

	if g.rand == nil {
		seed := uint64(time.Now().UnixNano())
		g.rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return g, nil
}

// GenerateAll expands every stored dialogue. Oracle errors abandon the
// current dialogue only; store errors and cancellation stop the run.
func (g *DPOGenerator) GenerateAll(ctx context.Context) (DPOReport, error) {
	var report DPOReport
	dialogues := g.dialogues.All()

	for i, dialogue := range dialogues {
		report.Dialogues++
		err := g.generate(ctx, dialogue, &report)
		switch {
		case err != nil && ctx.Err() != nil:
			return report, ctx.Err()
		case isOracleError(err):
			g.logger.Error("abandoning dialogue", zap.String("dialogue", dialogue.ID), zap.Error(err))
			g.opts.Metrics.DialogueAbandoned()
			report.Abandoned++
		case err != nil:
			return report, err
		}
		if g.opts.Progress != nil {
			g.opts.Progress(i+1, len(dialogues))
		}
	}

	g.logger.Info("preference generation finished",
		zap.Int("dialogues", report.Dialogues),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("abandoned", report.Abandoned))
	return report, nil
}

// GenerateDialogue expands the preference tree of one dialogue
func (g *DPOGenerator) GenerateDialogue(ctx context.Context, dialogue models.Dialogue) (DPOReport, error) {
	report := DPOReport{Dialogues: 1}
	err := g.generate(ctx, dialogue, &report)
	return report, err
}

// generate walks the dialogue turn by turn. At each depth up to Branching
// children are created and the walk continues below one of them chosen at
// random; the walk ends at the last turn, at a dead end, or when every
// candidate child already exists.
func (g *DPOGenerator) generate(ctx context.Context, dialogue models.Dialogue, report *DPOReport) error {
	log := g.logger.With(zap.String("dialogue", dialogue.ID))
	var path []models.DPOTurn

	for depth := 0; depth < len(dialogue.Turns); depth++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		upcoming := dialogue.Turns[depth]

		candidates, err := g.bestRules(ctx, path, upcoming)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			log.Debug("no applicable rule", zap.Int("depth", depth))
			return nil
		}

		selected, err := g.selectRules(dialogue.ID, path, candidates)
		if err != nil {
			return err
		}
		created, err := g.branch(ctx, dialogue, path, upcoming, selected, report)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			return nil
		}

		next := created[g.rand.IntN(len(created))]
		path = append(slices.Clip(path), next)
	}

	log.Debug("reached the end of the dialogue", zap.Int("depth", len(path)))
	return nil
}

// bestRules scores every rule in table order and returns the applicable
// rules tied at the highest score. Rules used in the recency window score 0
// without consulting the oracle.
func (g *DPOGenerator) bestRules(ctx context.Context, path []models.DPOTurn, upcoming models.Turn) ([]models.Rule, error) {
	recent := make(map[int]bool, g.opts.RecencyWindow)
	for i := max(0, len(path)-g.opts.RecencyWindow); i < len(path); i++ {
		recent[path[i].RuleUsed] = true
	}

	best, bestScore := []models.Rule(nil), 0
	for _, rule := range g.rules.All() {
		if recent[rule.Index] {
			continue
		}

		start := time.Now()
		score, err := g.oracle.Score(ctx, rule, path, upcoming)
		g.opts.Metrics.ObserveOracle(OpScore, time.Since(start))
		if err != nil {
			return nil, &OracleError{Op: OpScore, Rule: rule.Index, Err: err}
		}
		if score < MinOracleScore || score > MaxOracleScore {
			return nil, &OracleError{Op: OpScore, Rule: rule.Index, Err: fmt.Errorf("score %d outside [%d,%d]", score, MinOracleScore, MaxOracleScore)}
		}

		if score < g.opts.MinScore || score < bestScore {
			continue
		}
		if score > bestScore {
			best, bestScore = nil, score
		}
		best = append(best, rule)
	}
	return best, nil
}

// selectRules picks at most Branching rules out of the tied candidates.
// Candidates whose child is already stored come first. Every stored child of
// the node, tied or not, uses up a slot; the free slots are sampled uniformly
// from the candidates not yet written, so a node never gains more than
// Branching children over any number of runs.
func (g *DPOGenerator) selectRules(dialogueID string, path []models.DPOTurn, candidates []models.Rule) ([]models.Rule, error) {
	tied := make(map[int]bool, len(candidates))
	var stored, fresh []models.Rule
	for _, rule := range candidates {
		tied[rule.Index] = true
		exists, err := g.childStored(dialogueID, path, rule.Index)
		if err != nil {
			return nil, err
		}
		if exists {
			stored = append(stored, rule)
		} else {
			fresh = append(fresh, rule)
		}
	}

	used := len(stored)
	for _, rule := range g.rules.All() {
		if tied[rule.Index] {
			continue
		}
		exists, err := g.childStored(dialogueID, path, rule.Index)
		if err != nil {
			return nil, err
		}
		if exists {
			used++
		}
	}

	if len(stored) >= g.opts.Branching {
		return stored[:g.opts.Branching], nil
	}
	slots := max(0, g.opts.Branching-used)
	if len(fresh) > slots {
		fresh = slices.Clone(fresh)
		g.rand.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
		fresh = fresh[:slots]
	}
	return append(stored, fresh...), nil
}

func (g *DPOGenerator) childStored(dialogueID string, path []models.DPOTurn, rule int) (bool, error) {
	id, err := childID(dialogueID, path, rule)
	if err != nil {
		return false, err
	}
	return g.store.Contains(id), nil
}

// childID is the id of the node reached from path by applying rule
func childID(dialogueID string, path []models.DPOTurn, rule int) (string, error) {
	rulePath := make([]int, len(path), len(path)+1)
	for i, t := range path {
		rulePath[i] = t.RuleUsed
	}
	return ids.DPOID(dialogueID, append(rulePath, rule))
}

// branch stores one child per selected rule unless it already exists and
// returns the turns of the children created by this call.
func (g *DPOGenerator) branch(ctx context.Context, dialogue models.Dialogue, path []models.DPOTurn, upcoming models.Turn, selected []models.Rule, report *DPOReport) ([]models.DPOTurn, error) {
	var last *models.DPOTurn
	if len(path) > 0 {
		last = &path[len(path)-1]
	}

	var created []models.DPOTurn
	for _, rule := range selected {
		id, err := childID(dialogue.ID, path, rule.Index)
		if err != nil {
			return nil, err
		}
		if g.store.Contains(id) {
			g.logger.Debug("dpo node already processed", zap.String("id", id))
			g.opts.Metrics.NodeSkipped()
			report.Skipped++
			continue
		}

		turn, err := g.rewrite(ctx, rule, last, upcoming)
		if err != nil {
			return nil, err
		}
		node, err := models.NewDPODialogue(id, turn)
		if err != nil {
			return nil, err
		}
		if err := g.store.Save(node); err != nil {
			return nil, fmt.Errorf("saving dpo node %s: %w", id, err)
		}

		g.logger.Info("dpo node written", zap.String("id", id), zap.Int("rule", rule.Index))
		g.opts.Metrics.NodeWritten()
		report.Written++
		created = append(created, turn)
	}
	return created, nil
}

func (g *DPOGenerator) rewrite(ctx context.Context, rule models.Rule, last *models.DPOTurn, upcoming models.Turn) (models.DPOTurn, error) {
	start := time.Now()
	question, answer, err := g.oracle.Rewrite(ctx, rule, last, upcoming)
	g.opts.Metrics.ObserveOracle(OpRewrite, time.Since(start))
	if err != nil {
		return models.DPOTurn{}, &OracleError{Op: OpRewrite, Rule: rule.Index, Err: err}
	}

	negative := upcoming.Assistant
	if g.negator != nil {
		start = time.Now()
		negative, err = g.negator.Negate(ctx, rule, answer)
		g.opts.Metrics.ObserveOracle(OpNegate, time.Since(start))
		if err != nil {
			return models.DPOTurn{}, &OracleError{Op: OpNegate, Rule: rule.Index, Err: err}
		}
	}

	return models.DPOTurn{
		StudentQuestion: question,
		PositiveAnswer:  answer,
		NegativeAnswer:  negative,
		RuleUsed:        rule.Index,
	}, nil
}
