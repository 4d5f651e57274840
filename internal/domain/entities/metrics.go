package entities

// PerformanceGrade is the qualitative bucket of a performance score.
type PerformanceGrade string

const (
	GradeExcellent PerformanceGrade = "excellent"
	GradeGood      PerformanceGrade = "good"
	GradeAverage   PerformanceGrade = "average"
	GradePoor      PerformanceGrade = "poor"
)

// PerformanceMetrics is computed once per orchestrated search.
type PerformanceMetrics struct {
	SearchTimeMs  float64          `json:"search_time_ms"`
	CacheHit      bool             `json:"cache_hit"`
	ResultCount   int              `json:"result_count"`
	Optimizations []string         `json:"optimizations"`
	Score         int              `json:"score"`
	Grade         PerformanceGrade `json:"grade"`
}
