// Package classifier labels inbound email as needing a human reply or
// not, using a fixed rubric.
package classifier

import (
	"context"
	"fmt"

	"aidesk/internal/llm"
	"aidesk/internal/models"

	"github.com/rs/zerolog/log"
)

// RubricConfidence is assigned to every successful classification. The
// rubric is categorical, so confidence is a policy constant rather than
// a model output.
const RubricConfidence = 90

const systemPrompt = `You are an expert email classifier for a helpdesk system. Your task is to determine if an incoming email is promotional/marketing/automated or requires a human response. You must analyze each email with sophisticated criteria while maintaining strict output format compliance.

DETAILED CLASSIFICATION RULES:

1. Mark as PROMOTIONAL (isPromotional: true) if the email:
   - Contains any marketing language or promotional offers
   - Is from a no-reply email address
   - Contains words like "newsletter", "update", "announcement", "offer", "discount"
   - Is an automated system notification (e.g., password changes, login alerts)
   - Contains tracking numbers or order confirmations
   - Is a social media notification or alert
   - Is a mass-sent newsletter or company update
   - Is an automated calendar invite or reminder
   - Contains phrases like "Don't miss out", "Limited time", "Special offer"
   - Is an automated receipt or transaction confirmation
   - Contains unsubscribe links or marketing footers

2. Mark as NEEDS_RESPONSE (isPromotional: false) if the email:
   - Contains direct questions requiring human judgment
   - Includes specific technical issues or bug reports
   - Contains personal or unique inquiries
   - References previous conversations or tickets
   - Contains urgent support requests or time-sensitive issues
   - Includes phrases like "Please help", "I need assistance", "Can someone explain"
   - Includes business proposals or partnership inquiries
   - Contains specific account or service questions
   - References specific transactions or interactions
   - Shows signs of human authorship (typos, conversational tone)

OUTPUT FORMAT:
You must respond in this exact JSON format with only these two fields:
{
    "isPromotional": boolean,
    "reason": "Brief explanation of classification decision"
}`

// Completer is the model call the classifier depends on
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// Classifier decides whether an email needs a drafted reply
type Classifier struct {
	model Completer
}

// New creates a classifier backed by the given model
func New(model Completer) (*Classifier, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required for classifier")
	}
	return &Classifier{model: model}, nil
}

type rubricVerdict struct {
	IsPromotional bool   `json:"isPromotional"`
	Reason        string `json:"reason"`
}

// Classify labels emailText. It never returns an error: any model or
// parse failure degrades to {unknown, 0}, which callers must treat as
// "do not act automatically".
func (c *Classifier) Classify(ctx context.Context, emailText string) models.ClassificationResult {
	user := fmt.Sprintf("Please classify this email:\nContent: %s", emailText)

	raw, err := c.model.Complete(ctx, systemPrompt, user, 0.1, 150)
	if err != nil {
		log.Warn().Err(err).Msg("Classifier model call failed, returning unknown")
		return models.ClassificationResult{Classification: models.ClassificationUnknown, Confidence: 0}
	}

	var verdict rubricVerdict
	if err := llm.ExtractJSON(raw, &verdict); err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("Classifier output unparseable, returning unknown")
		return models.ClassificationResult{Classification: models.ClassificationUnknown, Confidence: 0}
	}

	classification := models.ClassificationShouldRespond
	if verdict.IsPromotional {
		classification = models.ClassificationNoResponse
	}

	return models.ClassificationResult{
		Classification: classification,
		Confidence:     RubricConfidence,
		Reason:         verdict.Reason,
	}
}
