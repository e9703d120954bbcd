package booking

import (
	"math"

	"studiobooking/internal/domain/catalog"
)

// ComputePrice charges the room's hourly rate for the exact (fractional)
// duration and adds each equipment item's daily rate once. The result is
// rounded to cents.
func ComputePrice(hourlyRate float64, iv Interval, equipment []catalog.Equipment) float64 {
	hours := iv.Duration().Hours()
	if hours < 0 {
		hours = 0
	}
	total := math.Max(hourlyRate, 0) * hours
	for _, e := range equipment {
		total += math.Max(e.DailyRate, 0)
	}
	// total_price is stored as NUMERIC(12,2).
	return math.Round(total*100) / 100
}
