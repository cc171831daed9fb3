// Package rag drafts grounded email replies from the knowledge base.
package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"aidesk/internal/factcheck"
	"aidesk/internal/llm"
	"aidesk/internal/models"
	"aidesk/internal/vector"

	"github.com/rs/zerolog/log"
)

// NoInfoResponse is returned whenever the knowledge base cannot support
// an answer, including on any internal failure.
const NoInfoResponse = "Not enough info."

// FallbackConfidence marks an answer that exists but could not be
// verified into its structured form.
const FallbackConfidence = 30

// Embedder produces embedding vectors for query text
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Completer is the drafting model call
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// Checker verifies a drafted answer against retrieval context
type Checker interface {
	Check(ctx context.Context, answer string, chunks []factcheck.ContextChunk) models.FactCheckResult
}

// Generator produces grounded draft replies
type Generator struct {
	embedder Embedder
	model    Completer
	store    vector.Store
	checker  Checker

	orgName         string
	topK            int
	similarityFloor float32
}

// New creates a generator
func New(embedder Embedder, model Completer, store vector.Store, checker Checker, orgName string, topK int, similarityFloor float32) (*Generator, error) {
	if embedder == nil || model == nil || store == nil || checker == nil {
		return nil, fmt.Errorf("embedder, model, store and checker are required for rag generator")
	}
	if topK <= 0 {
		topK = 5
	}
	return &Generator{
		embedder:        embedder,
		model:           model,
		store:           store,
		checker:         checker,
		orgName:         orgName,
		topK:            topK,
		similarityFloor: similarityFloor,
	}, nil
}

// Options carries per-request personalization and debug flags
type Options struct {
	FromName  string
	AgentName string
	Debug     bool
}

func firstName(full, fallback string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

type modelAnswer struct {
	Answer     string `json:"answer"`
	Confidence int    `json:"confidence"`
}

// Generate drafts a reply to emailText grounded in the org's knowledge
// base. It never returns an error: every failure mode maps to a safe
// low-confidence RagResponse.
func (g *Generator) Generate(ctx context.Context, emailText, orgID string, opts Options) models.RagResponse {
	start := time.Now()
	debugInfo := &models.RagDebugInfo{}

	noInfo := func() models.RagResponse {
		resp := models.RagResponse{Response: NoInfoResponse, Confidence: 0, References: []string{}}
		if opts.Debug {
			debugInfo.ProcessingMs = time.Since(start).Milliseconds()
			resp.DebugInfo = debugInfo
		}
		return resp
	}

	embedding, err := g.embedder.CreateEmbedding(ctx, emailText)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("Embedding failed during draft generation")
		return noInfo()
	}

	matches, err := g.store.Query(ctx, orgID, embedding, g.topK, g.similarityFloor)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("Vector query failed during draft generation")
		return noInfo()
	}

	if opts.Debug {
		for _, m := range matches {
			debugInfo.Chunks = append(debugInfo.Chunks, models.RetrievedChunk{
				ID:         m.ID,
				DocID:      m.Metadata.DocID,
				Text:       m.Metadata.Text,
				Similarity: m.Score,
			})
		}
	}

	if len(matches) == 0 {
		log.Info().Str("org_id", orgID).Msg("No relevant chunks found for query")
		return noInfo()
	}

	var contextBlock strings.Builder
	references := make([]string, 0, len(matches))
	chunks := make([]factcheck.ContextChunk, 0, len(matches))
	for i, m := range matches {
		fmt.Fprintf(&contextBlock, "\n[Chunk %d]:\n%s\n", i+1, m.Metadata.Text)
		references = append(references, m.ID)
		chunks = append(chunks, factcheck.ContextChunk{ID: m.ID, Text: m.Metadata.Text})
	}

	customerName := firstName(opts.FromName, "there")
	agentName := firstName(opts.AgentName, "Support Agent")
	systemPrompt := buildPrompt(contextBlock.String(), customerName, agentName, emailText)

	if opts.Debug {
		debugInfo.Prompt = &models.PromptDebug{
			System:      systemPrompt,
			User:        emailText,
			Temperature: 0.2,
			MaxTokens:   500,
		}
	}

	raw, err := g.model.Complete(ctx, systemPrompt, emailText, 0.2, 500)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("Draft completion failed")
		return noInfo()
	}
	raw = strings.TrimSpace(raw)
	if opts.Debug {
		debugInfo.ModelResponse = raw
	}

	answer, confidence := g.parseAnswer(raw)

	verdict := g.checker.Check(ctx, answer, chunks)
	if opts.Debug {
		debugInfo.FactCheck = &models.FactCheckDebug{
			IsFactual:   verdict.IsFactual,
			Confidence:  verdict.Confidence,
			Corrections: verdict.Corrections,
		}
	}

	if !verdict.IsFactual || len(verdict.Corrections) > 0 {
		answer = factcheck.ApplyCorrections(answer, verdict.Corrections)
		confidence = min(confidence, verdict.Confidence)

		if factcheck.IsMangled(answer) {
			answer = fmt.Sprintf(
				"Hi %s,\n\nThank you for your interest in %s. For detailed information about our amenities and services, please contact us directly.\n\nBest regards,\n%s",
				customerName, g.orgName, agentName)
			confidence = FallbackConfidence
		}
	}

	log.Info().
		Int("confidence", confidence).
		Strs("references", references).
		Str("org_id", orgID).
		Msg("Generated draft response")

	resp := models.RagResponse{
		Response:   answer,
		Confidence: models.ClampConfidence(confidence),
		References: references,
	}
	if opts.Debug {
		debugInfo.ProcessingMs = time.Since(start).Milliseconds()
		resp.DebugInfo = debugInfo
	}
	return resp
}

// parseAnswer extracts {answer, confidence} from raw model output. When
// no JSON object is present the raw text is wrapped as a paragraph with
// fallback confidence, so an off-format model reply is preserved rather
// than discarded.
func (g *Generator) parseAnswer(raw string) (string, int) {
	var parsed modelAnswer
	if err := llm.ExtractJSON(raw, &parsed); err != nil || parsed.Answer == "" {
		return "<p>" + raw + "</p>", FallbackConfidence
	}
	return normalizeHTML(parsed.Answer), models.ClampConfidence(parsed.Confidence)
}

var (
	paragraphBreakRe = regexp.MustCompile(`\n{2,}`)
	multiSpaceRe     = regexp.MustCompile(` {2,}`)
)

// normalizeHTML converts plain-text paragraph conventions into the HTML
// shape the outbound mail template expects.
func normalizeHTML(answer string) string {
	answer = paragraphBreakRe.ReplaceAllString(answer, "</p><p>")
	answer = strings.ReplaceAll(answer, "\n", "<br/>")
	answer = multiSpaceRe.ReplaceAllString(answer, " &nbsp; &nbsp;")
	answer = strings.TrimSpace(answer)
	if !strings.HasPrefix(answer, "<p>") {
		answer = "<p>" + answer + "</p>"
	}
	return answer
}

func buildPrompt(contextBlock, customerName, agentName, emailText string) string {
	return fmt.Sprintf(`
You are a knowledgeable support agent crafting email responses. Use ONLY the following context to answer the customer's question:
%s

CRITICAL GUIDELINES:
1. Be concise but specific - aim for 3-4 well-structured paragraphs
2. Start with a warm but brief greeting using "%s"
3. Focus on answering the specific question or addressing the main concern
4. End with a simple "Best regards," followed by "%s"
5. Maintain a professional yet friendly tone
6. ONLY include information that is EXPLICITLY present in the provided context
7. DO NOT make up or hallucinate any information, especially:
   - Contact information
   - Specific numbers or statistics
   - Features or services not mentioned
   - Prices or dates
8. If information is not in the context, say "I don't have that information" instead of making assumptions
9. Format with proper HTML line breaks and paragraphs:
   - Use <p> tags for paragraphs with margin-bottom
   - Use <br/> for line breaks within paragraphs
   - One blank line after greeting
   - One blank line between paragraphs
   - One blank line before sign-off

User's email: "%s"

Return a JSON object: {
  "answer": "...",
  "confidence": 0-100
} where:
- "answer": your complete email response with proper HTML formatting
- "confidence": integer from 0 to 100, where:
  * 0-30: not enough relevant info
  * 31-70: partial match or uncertain
  * 71-100: high confidence answer

If you cannot answer based on the context, respond with "Not enough info." and low confidence.`,
		contextBlock, customerName, agentName, emailText)
}
