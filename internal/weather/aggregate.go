package weather

import (
	"sort"
	"time"
)

// SummarizeDay combines the readings of one day into a DailySummary.
// Temperatures give the range, humidity and wind are averaged, precipitation
// is summed and the condition is selected by majority (earliest wins a tie).
func SummarizeDay(date time.Time, readings []ProviderReading) DailySummary {
	day := DailySummary{
		Date:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Condition: ConditionUnknown,
	}
	if len(readings) == 0 {
		return day
	}

	var (
		sumHumidity float64
		sumWind     float64
	)

	conditionCounts := make(map[Condition]int)
	var conditionOrder []Condition

	day.MinTemp = readings[0].TemperatureC
	day.MaxTemp = readings[0].TemperatureC

	for _, r := range readings {
		if r.TemperatureC < day.MinTemp {
			day.MinTemp = r.TemperatureC
		}
		if r.TemperatureC > day.MaxTemp {
			day.MaxTemp = r.TemperatureC
		}
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		day.TotalPrecip += r.PrecipMm

		if _, seen := conditionCounts[r.Condition]; !seen {
			conditionOrder = append(conditionOrder, r.Condition)
		}
		conditionCounts[r.Condition]++
	}

	n := float64(len(readings))
	day.AvgHumidity = sumHumidity / n
	day.AvgWindSpeed = sumWind / n

	bestCount := 0
	for _, cond := range conditionOrder {
		if count := conditionCounts[cond]; count > bestCount {
			bestCount = count
			day.Condition = cond
		}
	}
	return day
}

// DailyFromHourly buckets hourly readings by UTC day and summarizes each day,
// returning at most days entries ordered by date.
func DailyFromHourly(hourly []ProviderReading, days int) []DailySummary {
	if len(hourly) == 0 || days <= 0 {
		return nil
	}

	buckets := make(map[string][]ProviderReading)
	dates := make(map[string]time.Time)
	for _, r := range hourly {
		ts := r.Timestamp.UTC()
		k := ts.Format("2006-01-02")
		buckets[k] = append(buckets[k], r)
		if _, ok := dates[k]; !ok {
			dates[k] = ts
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DailySummary, 0, min(days, len(keys)))
	for _, k := range keys {
		if len(out) >= days {
			break
		}
		out = append(out, SummarizeDay(dates[k], buckets[k]))
	}
	return out
}
