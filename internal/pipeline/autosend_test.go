package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideAutoSend(t *testing.T) {
	tests := []struct {
		name       string
		confidence int
		threshold  int
		wantSend   bool
	}{
		{name: "confidence above threshold sends", confidence: 95, threshold: 85, wantSend: true},
		{name: "confidence below threshold holds", confidence: 70, threshold: 85, wantSend: false},
		{name: "confidence equal to threshold sends", confidence: 85, threshold: 85, wantSend: true},
		{name: "zero confidence holds", confidence: 0, threshold: 75, wantSend: false},
		{name: "zero threshold always sends", confidence: 1, threshold: 0, wantSend: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := DecideAutoSend(tt.confidence, tt.threshold)
			assert.Equal(t, tt.wantSend, decision.AutoSend)
			assert.Equal(t, tt.confidence, decision.Confidence)
			assert.Equal(t, tt.threshold, decision.Threshold)
		})
	}
}

func TestDecideAutoSendIsDeterministic(t *testing.T) {
	first := DecideAutoSend(80, 75)
	second := DecideAutoSend(80, 75)
	assert.Equal(t, first, second)
}
