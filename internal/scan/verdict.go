package scan

import "sort"

// Engine categories reported by the reputation service.
const (
	CategoryMalicious  = "malicious"
	CategorySuspicious = "suspicious"
	CategoryHarmless   = "harmless"
	CategoryUndetected = "undetected"
)

// EngineResult is one engine's opinion about a file.
type EngineResult struct {
	Category   string `json:"category"`
	EngineName string `json:"engine_name,omitempty"`
	Result     string `json:"result,omitempty"`
}

// Verdict is the binary classification derived from per-engine results.
type Verdict struct {
	Stats           map[string]int `json:"stats"`
	MaliciousCount  int            `json:"malicious"`
	SuspiciousCount int            `json:"suspicious"`
	TotalEngines    int            `json:"total_engines"`
	FlaggedBy       []string       `json:"flagged_by,omitempty"`
}

// IsMalicious is true as soon as a single engine flags the file.
func (v Verdict) IsMalicious() bool {
	return v.MaliciousCount > 0
}

// Evaluate classifies a file from its engine-name to result mapping.
func Evaluate(results map[string]EngineResult) Verdict {
	verdict := Verdict{Stats: make(map[string]int)}
	for engine, res := range results {
		verdict.Stats[res.Category]++
		verdict.TotalEngines++
		switch res.Category {
		case CategoryMalicious:
			verdict.MaliciousCount++
			verdict.FlaggedBy = append(verdict.FlaggedBy, engine)
		case CategorySuspicious:
			verdict.SuspiciousCount++
		}
	}
	sort.Strings(verdict.FlaggedBy)
	return verdict
}

// EvaluateStats classifies a file from a category to count mapping.
func EvaluateStats(stats map[string]int) Verdict {
	verdict := Verdict{Stats: make(map[string]int, len(stats))}
	for category, count := range stats {
		verdict.Stats[category] = count
		verdict.TotalEngines += count
	}
	verdict.MaliciousCount = stats[CategoryMalicious]
	verdict.SuspiciousCount = stats[CategorySuspicious]
	return verdict
}
