package models

// ClassificationResult is the classifier output. Confidence is 0-100;
// unknown always carries confidence 0 to signal a pipeline failure
// rather than a model judgment.
type ClassificationResult struct {
	Classification Classification `json:"classification"`
	Confidence     int            `json:"confidence"`
	Reason         string         `json:"reason,omitempty"`
}

// CorrectionType tags a fact-check correction for the applier's
// ordering and replacement strategy.
type CorrectionType string

const (
	CorrectionContactInfo CorrectionType = "contact_info"
	CorrectionAmenity     CorrectionType = "amenity"
	CorrectionFeature     CorrectionType = "feature"
	CorrectionGeneral     CorrectionType = "general"
)

// RemoveSentinel in a correction's replacement means the flagged text
// has no grounded alternative.
const RemoveSentinel = "remove"

// Correction is a single flagged claim from an evaluator
type Correction struct {
	Original   string         `json:"original"`
	Correction string         `json:"correction"`
	Type       CorrectionType `json:"type,omitempty"`
	Source     string         `json:"source,omitempty"`
}

// FactCheckResult combines both evaluators. Confidence is the minimum
// across evaluator scores; either evaluator can veto factuality.
type FactCheckResult struct {
	IsFactual      bool         `json:"is_factual"`
	Confidence     int          `json:"confidence"`
	Corrections    []Correction `json:"corrections"`
	VerifiedChunks []string     `json:"verified_chunks"`
}

// RetrievedChunk is one context chunk surfaced by retrieval
type RetrievedChunk struct {
	ID         string  `json:"id"`
	DocID      string  `json:"doc_id"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
}

// PromptDebug captures the exact prompt sent to the model
type PromptDebug struct {
	System      string  `json:"system"`
	User        string  `json:"user"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// FactCheckDebug captures the ensemble verdict for debug output
type FactCheckDebug struct {
	IsFactual   bool         `json:"is_factual"`
	Confidence  int          `json:"confidence"`
	Corrections []Correction `json:"corrections"`
}

// RagDebugInfo is optional diagnostic detail attached to a RagResponse
type RagDebugInfo struct {
	Chunks        []RetrievedChunk `json:"chunks,omitempty"`
	Prompt        *PromptDebug     `json:"prompt,omitempty"`
	ModelResponse string           `json:"model_response,omitempty"`
	ProcessingMs  int64            `json:"processing_ms,omitempty"`
	FactCheck     *FactCheckDebug  `json:"fact_check,omitempty"`
}

// RagResponse is the generator output. References holds the ids of the
// chunks actually used to build the context, in retrieval order.
type RagResponse struct {
	Response   string        `json:"response"`
	Confidence int           `json:"confidence"`
	References []string      `json:"references"`
	DebugInfo  *RagDebugInfo `json:"debug_info,omitempty"`
}

// ClampConfidence bounds a confidence score into [0,100]
func ClampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
