package dto

import "time"

// SystemMetrics is a lightweight runtime snapshot for administrators.
type SystemMetrics struct {
	CacheHitRatio            float64          `json:"cacheHitRatio"`
	CacheHits                uint64           `json:"cacheHits"`
	CacheMisses              uint64           `json:"cacheMisses"`
	RequestsTotal            uint64           `json:"requestsTotal"`
	AverageRequestDurationMs float64          `json:"averageRequestDurationMs"`
	GradesClassified         map[string]int64 `json:"gradesClassified"`
	PaymentsRecorded         uint64           `json:"paymentsRecorded"`
	Goroutines               int              `json:"goroutines"`
	GeneratedAt              time.Time        `json:"generatedAt"`
}
