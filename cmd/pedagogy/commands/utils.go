// ABOUTME: Shared setup for CLI commands: config, logger, metrics and pipeline builders
// ABOUTME: Keeps flag overrides and stage wiring in one place for every subcommand
package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/config"
	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/llm"
	"github.com/harper/pedagogy/internal/logging"
	"github.com/harper/pedagogy/internal/metrics"
	"github.com/harper/pedagogy/internal/models"
	"github.com/harper/pedagogy/internal/storage"
)

// runtime bundles what a pipeline command needs
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	paths   storage.Paths
}

// newRuntime loads configuration and applies the global flags on top
func newRuntime() (*runtime, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case quiet:
		cfg.Log.Level = "error"
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger.With(zap.String("run_id", uuid.NewString())),
		metrics: metrics.New(),
		paths:   datasetPaths(),
	}, nil
}

// datasetPaths resolves the file flags against --data-dir
func datasetPaths() storage.Paths {
	p := storage.PathsIn(dataDir)
	if documentsPath != "" {
		p.Documents = documentsPath
	}
	if dialoguesPath != "" {
		p.Dialogues = dialoguesPath
	}
	if dpoPath != "" {
		p.DPO = dpoPath
	}
	return p
}

// finish flushes logs and writes the metrics file when requested. Stage
// commands defer it, failed runs included; a metrics write failure only
// replaces a nil *errp.
func (r *runtime) finish(errp *error) {
	_ = r.logger.Sync()
	if metricsFile == "" {
		return
	}
	if err := r.metrics.WriteTextfile(metricsFile); err != nil {
		r.logger.Error("writing metrics failed", zap.String("file", metricsFile), zap.Error(err))
		if *errp == nil {
			*errp = fmt.Errorf("writing metrics: %w", err)
		}
	}
}

func (r *runtime) openDataset() (*storage.Dataset, error) {
	ds, err := storage.OpenDataset(r.paths)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("dataset loaded",
		zap.Int("documents", ds.Documents.Len()),
		zap.Int("dialogues", ds.Dialogues.Len()),
		zap.Int("dpo_nodes", ds.DPO.Len()))
	return ds, nil
}

// newOracle builds the OpenAI-backed oracle with prompts from dir
func (r *runtime) newOracle(promptsDir string) (*llm.Oracle, error) {
	if err := r.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	oa := r.cfg.OpenAI
	client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:     oa.APIKey,
		BaseURL:    oa.BaseURL,
		ChatModel:  oa.Model,
		Timeout:    oa.Timeout,
		MaxRetries: oa.MaxRetries,
		RetryDelay: oa.RetryDelay,
		RateLimit:  oa.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}
	prompts, err := llm.LoadPrompts(promptsDir)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("oracle ready", zap.String("model", client.Model()), zap.String("prompts", promptsDir))
	return llm.NewOracle(client, prompts), nil
}

func (r *runtime) extractor(docs *storage.Collection[models.Document], progress func(done, total int)) *core.Extractor {
	ex := r.cfg.Extraction
	chunker := core.NewChunker(core.ChunkerOptions{
		MinChunkChars: ex.MinChunkChars,
		MaxChunkChars: ex.MaxChunkChars,
		MinAlnumRatio: ex.MinAlnumRatio,
	})
	return core.NewExtractor(core.PDFSource{}, chunker, docs, core.ExtractorOptions{
		MinWords: ex.MinWords,
		Logger:   r.logger,
		Metrics:  r.metrics,
		Progress: progress,
	})
}

func (r *runtime) dialogueGenerator(writer core.DialogueWriter, ds *storage.Dataset, progress func(done, total int)) *core.DialogueGenerator {
	gen := r.cfg.Generation
	return core.NewDialogueGenerator(writer, ds.Documents, ds.Dialogues, core.DialogueOptions{
		WindowChars:  gen.WindowChars,
		OverlapChars: gen.OverlapChars,
		MaxDialogues: gen.MaxDialogues,
		Logger:       r.logger,
		Metrics:      r.metrics,
		Progress:     progress,
	})
}

func (r *runtime) dpoGenerator(oracle core.Oracle, rules *models.Rules, ds *storage.Dataset, progress func(done, total int)) (*core.DPOGenerator, error) {
	gen := r.cfg.Generation
	opts := core.DPOOptions{
		Branching:      gen.Branching,
		RecencyWindow:  gen.RecencyWindow,
		MinScore:       gen.MinScore,
		NegativePolicy: gen.NegativePolicy,
		Logger:         r.logger,
		Metrics:        r.metrics,
		Progress:       progress,
	}
	if gen.Seed != 0 {
		seed := uint64(gen.Seed)
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	return core.NewDPOGenerator(oracle, rules, ds.Dialogues, ds.DPO, opts)
}

// applyGenerationFlags copies explicitly set generation flags into cfg
func applyGenerationFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-dialogues") {
		n, err := flags.GetInt("max-dialogues")
		if err != nil {
			return err
		}
		if err := validateNonNegativeInt(n, "max-dialogues"); err != nil {
			return err
		}
		cfg.Generation.MaxDialogues = n
	}
	if flags.Changed("seed") {
		seed, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Generation.Seed = seed
	}
	if flags.Changed("negative-policy") {
		policy, err := flags.GetString("negative-policy")
		if err != nil {
			return err
		}
		cfg.Generation.NegativePolicy = policy
	}
	return cfg.Validate()
}

// progressFunc renders a progress bar on w unless --quiet is set
func progressFunc(w io.Writer, description string) func(done, total int) {
	if quiet {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// validateNonNegativeInt returns error if n is negative
func validateNonNegativeInt(n int, name string) error {
	if n < 0 {
		return fmt.Errorf("%s must not be negative, got %d", name, n)
	}
	return nil
}
