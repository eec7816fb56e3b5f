package report

import (
	"fmt"
	"math"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
)

// DefaultHistoryWindow is used when a caller asks for history without a range.
const DefaultHistoryWindow = 7 * 24 * time.Hour

const day = 24 * time.Hour

// TimeRange is a closed interval of history to report on.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects zero or inverted ranges.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return apperr.Validation("time range requires start and end", nil)
	}
	if !r.End.After(r.Start) {
		return apperr.Validation("time range end must be after start", nil)
	}
	return nil
}

// Duration is the elapsed time covered by the range.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// LastWindow returns the range ending at now.
func LastWindow(now time.Time, d time.Duration) TimeRange {
	return TimeRange{Start: now.Add(-d), End: now}
}

// DescribeRange turns an elapsed duration into the label shown on reports.
// Thresholds are inclusive.
func DescribeRange(d time.Duration) string {
	switch {
	case d <= time.Hour:
		return "last hour"
	case d <= day:
		return "last day"
	case d <= 7*day:
		return "last week"
	case d <= 30*day:
		return "last month"
	case d <= 90*day:
		return "last 3 months"
	default:
		return fmt.Sprintf("%d days", int(math.Ceil(d.Hours()/24)))
	}
}
