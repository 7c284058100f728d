package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/angelmondragon/trustchain-backend/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAssessor struct{ p float64 }

func (f fixedAssessor) Score(in risk.Input) (risk.Assessment, error) {
	return risk.Assessment{IsCounterfeit: f.p >= 0.5, Confidence: f.p, Reason: risk.BucketFor(f.p)}, nil
}

func TestInteractiveLoopPrintsVerdict(t *testing.T) {
	in := strings.NewReader("Glow Serum\nwater, mercury\n$49.99\nserum\n\n")
	var out bytes.Buffer

	require.NoError(t, interactiveLoop(fixedAssessor{p: 0.82}, in, &out))
	assert.Contains(t, out.String(), "COUNTERFEIT (confidence 82.00%)")
}

func TestInteractiveLoopStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, interactiveLoop(fixedAssessor{p: 0.1}, strings.NewReader("Cream\nwater\n"), &out))
	assert.NotContains(t, out.String(), "LEGITIMATE")
}
