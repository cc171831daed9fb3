// Package factcheck verifies a drafted answer against the retrieval
// context before it can be sent.
package factcheck

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"aidesk/internal/llm"
	"aidesk/internal/models"

	"github.com/rs/zerolog/log"
)

// Completer is the model call the evaluators depend on
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// Ensemble runs two independent evaluators over the same answer and
// combines their verdicts conservatively.
type Ensemble struct {
	model Completer
}

// New creates a fact-check ensemble backed by the given model
func New(model Completer) (*Ensemble, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required for fact check ensemble")
	}
	return &Ensemble{model: model}, nil
}

// ContextChunk is one retrieved chunk handed to the evaluators
type ContextChunk struct {
	ID   string
	Text string
}

type evaluatorVerdict struct {
	IsFactual   bool                `json:"isFactual"`
	Confidence  int                 `json:"confidence"`
	Corrections []models.Correction `json:"corrections"`
}

const factualSystemPrompt = `You are a fact-checking agent. Your task is to verify if the response ONLY contains information present in the provided context chunks.

Context chunks:
%s

Guidelines:
1. Check if EVERY piece of information in the response is explicitly supported by the context
2. Flag any information that is not directly found in the context
3. Do not allow any hallucinated details (e.g., contact information, specific numbers, or features not mentioned)
4. Be especially strict about contact information, prices, and specific claims
5. When marking corrections, include the entire phrase or sentence that needs correction
6. For contact information, if it's not in the context, mark the entire contact section for removal

Return a JSON object:
{
  "isFactual": boolean,
  "confidence": number (0-100),
  "corrections": [
    {
      "original": "problematic text",
      "correction": "correct version from context or 'remove' if no valid alternative",
      "type": "contact_info" | "amenity" | "feature" | "general"
    }
  ]
}`

const consistencySystemPrompt = `You are a consistency-checking agent. Your task is to verify if the response is internally consistent and logically coherent with the context.

Context chunks:
%s

Guidelines:
1. Check for internal contradictions in the response
2. Verify logical flow and coherence
3. Ensure consistency with the context
4. Flag any inconsistent or contradictory statements

Return a JSON object:
{
  "isFactual": boolean,
  "confidence": number (0-100),
  "corrections": [
    {
      "original": "inconsistent text",
      "correction": "consistent version or 'remove' if no valid alternative"
    }
  ]
}`

func formatChunks(chunks []ContextChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Chunk %d]:\n%s", i+1, chunk.Text)
	}
	return b.String()
}

// evaluate runs one evaluator. Parse and transport failures degrade to
// a non-factual zero-confidence verdict so a broken evaluator vetoes
// rather than vouches.
func (e *Ensemble) evaluate(ctx context.Context, systemPrompt, answer string) evaluatorVerdict {
	raw, err := e.model.Complete(ctx, systemPrompt, "Response to verify:\n"+answer, 0.1, 500)
	if err != nil {
		log.Warn().Err(err).Msg("Evaluator model call failed")
		return evaluatorVerdict{}
	}

	var verdict evaluatorVerdict
	if err := llm.ExtractJSON(raw, &verdict); err != nil {
		log.Warn().Err(err).Msg("Evaluator output unparseable")
		return evaluatorVerdict{}
	}
	return verdict
}

// Check runs both evaluators concurrently and merges their verdicts.
// Overall factuality requires both to agree; overall confidence is the
// lower of the two. Corrections keep factual-support first so the
// applier's ordering stays deterministic.
func (e *Ensemble) Check(ctx context.Context, answer string, chunks []ContextChunk) models.FactCheckResult {
	contextBlock := formatChunks(chunks)

	var factual, consistency evaluatorVerdict
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		factual = e.evaluate(ctx, fmt.Sprintf(factualSystemPrompt, contextBlock), answer)
	}()
	go func() {
		defer wg.Done()
		consistency = e.evaluate(ctx, fmt.Sprintf(consistencySystemPrompt, contextBlock), answer)
	}()
	wg.Wait()

	corrections := make([]models.Correction, 0, len(factual.Corrections)+len(consistency.Corrections))
	for _, c := range factual.Corrections {
		c.Source = "factual_accuracy"
		corrections = append(corrections, c)
	}
	for _, c := range consistency.Corrections {
		c.Source = "consistency"
		corrections = append(corrections, c)
	}

	verifiedChunks := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		verifiedChunks = append(verifiedChunks, chunk.ID)
	}

	result := models.FactCheckResult{
		IsFactual:      factual.IsFactual && consistency.IsFactual,
		Confidence:     min(factual.Confidence, consistency.Confidence),
		Corrections:    corrections,
		VerifiedChunks: verifiedChunks,
	}

	log.Info().
		Bool("is_factual", result.IsFactual).
		Int("confidence", result.Confidence).
		Int("corrections", len(result.Corrections)).
		Msg("Fact check completed")

	return result
}
