// ABOUTME: LLM-backed oracle for rule scoring, rule-conditioned rewrites and negatives
// ABOUTME: Also writes source-grounded dialogues; every call uses a structured output schema
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/pedagogy/internal/models"
)

// Completer performs one structured completion
type Completer interface {
	CompleteJSON(ctx context.Context, schemaName, prompt string, out any) error
}

type scoreResponse struct {
	RuleFitScore int `json:"rule_fit_score"`
}

type rewriteResponse struct {
	AdaptedResponse string `json:"adapted_response"`
	TutorResponse   string `json:"tutor_response"`
}

type negativeResponse struct {
	NotFollowingTutor string `json:"not_following_tutor"`
}

type interaction struct {
	StudentQuestion string `json:"student_question"`
	TutorResponse   string `json:"tutor_response"`
}

type dialogueResponse struct {
	Dialogue []interaction `json:"dialogue"`
}

// Oracle renders prompt templates and interprets structured replies
type Oracle struct {
	client  Completer
	prompts *Prompts
}

// NewOracle creates an Oracle; nil prompts means the embedded defaults
func NewOracle(client Completer, prompts *Prompts) *Oracle {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Oracle{client: client, prompts: prompts}
}

// Score asks how well rule fits the next turn given the conversation so far
func (o *Oracle) Score(ctx context.Context, rule models.Rule, conversation []models.DPOTurn, upcoming models.Turn) (int, error) {
	prompt := fill(o.prompts.Score,
		PlaceholderRule, rule.Text,
		PlaceholderConversation, formatConversation(conversation),
		PlaceholderStudentQuestion, upcoming.User,
		PlaceholderTutorAnswer, upcoming.Assistant,
	)

	var resp scoreResponse
	if err := o.client.CompleteJSON(ctx, "rule_score", prompt, &resp); err != nil {
		return 0, err
	}
	return resp.RuleFitScore, nil
}

// Rewrite adapts the student question and writes a rule-following answer
func (o *Oracle) Rewrite(ctx context.Context, rule models.Rule, last *models.DPOTurn, upcoming models.Turn) (string, string, error) {
	lastResponse := emptyLastResponse
	if last != nil {
		lastResponse = last.PositiveAnswer
	}
	prompt := fill(o.prompts.Rewrite,
		PlaceholderRule, rule.Text,
		PlaceholderLastTutorResponse, lastResponse,
		PlaceholderStudentQuestion, upcoming.User,
		PlaceholderTutorAnswer, upcoming.Assistant,
	)

	var resp rewriteResponse
	if err := o.client.CompleteJSON(ctx, "rule_rewrite", prompt, &resp); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(resp.TutorResponse) == "" {
		return "", "", fmt.Errorf("rewrite for rule %d returned an empty tutor response", rule.Index)
	}
	return resp.AdaptedResponse, resp.TutorResponse, nil
}

// Negate writes a response covering the same content that ignores rule
func (o *Oracle) Negate(ctx context.Context, rule models.Rule, positive string) (string, error) {
	prompt := fill(o.prompts.Negative,
		PlaceholderRule, rule.Text,
		PlaceholderGoodResponse, positive,
	)

	var resp negativeResponse
	if err := o.client.CompleteJSON(ctx, "negative_answer", prompt, &resp); err != nil {
		return "", err
	}
	return resp.NotFollowingTutor, nil
}

// WriteDialogue produces the turns of a tutoring conversation grounded in source
func (o *Oracle) WriteDialogue(ctx context.Context, source string) ([]models.Turn, error) {
	prompt := fill(o.prompts.Dialogue, PlaceholderSourceText, source)

	var resp dialogueResponse
	if err := o.client.CompleteJSON(ctx, "dialogue", prompt, &resp); err != nil {
		return nil, err
	}
	if len(resp.Dialogue) == 0 {
		return nil, fmt.Errorf("dialogue completion returned no exchanges")
	}

	turns := make([]models.Turn, len(resp.Dialogue))
	for i, ex := range resp.Dialogue {
		turns[i] = models.Turn{User: ex.StudentQuestion, Assistant: ex.TutorResponse}
	}
	return turns, nil
}

func formatConversation(turns []models.DPOTurn) string {
	if len(turns) == 0 {
		return emptyConversation
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "Student: %s\n", t.StudentQuestion)
		fmt.Fprintf(&b, "Tutor: %s\n", t.PositiveAnswer)
	}
	return b.String()
}
