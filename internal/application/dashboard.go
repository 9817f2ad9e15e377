package application

import (
	"math"
	"strconv"
	"strings"

	"vitalnotes/internal/domain"
)

// Summarize computes the dashboard figures. Records whose age is not a
// number are left out of the average.
func Summarize(records []domain.Patient) domain.DashboardStats {
	stats := domain.DashboardStats{Total: len(records)}
	var sum float64
	var aged int
	for _, record := range records {
		if age, err := strconv.ParseFloat(strings.TrimSpace(string(record.Age)), 64); err == nil {
			sum += age
			aged++
		}
		if strings.Contains(strings.ToLower(record.Condition), "serious") {
			stats.SeriousCases++
		}
	}
	if aged > 0 {
		stats.AverageAge = int(math.Round(sum / float64(aged)))
	}
	return stats
}
