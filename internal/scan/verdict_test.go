package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateSingleEngineIsEnough(t *testing.T) {
	verdict := Evaluate(map[string]EngineResult{
		"EngineA": {Category: CategoryMalicious},
		"EngineB": {Category: CategoryHarmless},
		"EngineC": {Category: CategoryUndetected},
	})

	assert.True(t, verdict.IsMalicious())
	assert.Equal(t, 1, verdict.MaliciousCount)
	assert.Equal(t, 3, verdict.TotalEngines)
	assert.Equal(t, []string{"EngineA"}, verdict.FlaggedBy)
}

func TestEvaluateClean(t *testing.T) {
	verdict := Evaluate(map[string]EngineResult{
		"EngineA": {Category: CategoryUndetected},
		"EngineB": {Category: CategorySuspicious},
	})

	assert.False(t, verdict.IsMalicious())
	assert.Equal(t, 1, verdict.SuspiciousCount)
	assert.Equal(t, 2, verdict.TotalEngines)
}

func TestEvaluateEmpty(t *testing.T) {
	verdict := Evaluate(nil)

	assert.False(t, verdict.IsMalicious())
	assert.Zero(t, verdict.TotalEngines)
}

func TestEvaluateStats(t *testing.T) {
	verdict := EvaluateStats(map[string]int{
		"malicious":  2,
		"suspicious": 1,
		"undetected": 60,
		"harmless":   7,
	})

	assert.True(t, verdict.IsMalicious())
	assert.Equal(t, 2, verdict.MaliciousCount)
	assert.Equal(t, 70, verdict.TotalEngines)
	assert.Equal(t, 60, verdict.Stats["undetected"])
}
