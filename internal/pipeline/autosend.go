package pipeline

// AutoSendDecision is the outcome of the confidence gate
type AutoSendDecision struct {
	AutoSend   bool `json:"auto_send"`
	Confidence int  `json:"confidence"`
	Threshold  int  `json:"threshold"`
}

// DecideAutoSend gates sending a draft without human review. Pure and
// total: no I/O, same inputs always give the same decision.
func DecideAutoSend(confidence, threshold int) AutoSendDecision {
	return AutoSendDecision{
		AutoSend:   confidence >= threshold,
		Confidence: confidence,
		Threshold:  threshold,
	}
}
