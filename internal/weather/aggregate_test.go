package weather

import (
	"testing"
	"time"
)

func TestSummarizeDay(t *testing.T) {
	date := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	readings := []ProviderReading{
		{TemperatureC: 20, HumidityPct: 60, WindSpeedMS: 2, PrecipMm: 0.5, Condition: ConditionRain},
		{TemperatureC: 28, HumidityPct: 40, WindSpeedMS: 4, PrecipMm: 0, Condition: ConditionClear},
		{TemperatureC: 24, HumidityPct: 50, WindSpeedMS: 3, PrecipMm: 1.5, Condition: ConditionRain},
	}

	day := SummarizeDay(date, readings)

	if !day.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight date, got %v", day.Date)
	}
	if day.MinTemp != 20 || day.MaxTemp != 28 {
		t.Fatalf("expected range 20..28, got %v..%v", day.MinTemp, day.MaxTemp)
	}
	if day.AvgHumidity != 50 || day.AvgWindSpeed != 3 {
		t.Fatalf("unexpected averages: humidity=%v wind=%v", day.AvgHumidity, day.AvgWindSpeed)
	}
	if day.TotalPrecip != 2 {
		t.Fatalf("expected total precip 2, got %v", day.TotalPrecip)
	}
	if day.Condition != ConditionRain {
		t.Fatalf("expected majority condition rain, got %s", day.Condition)
	}
}

func TestSummarizeDayTieKeepsEarliest(t *testing.T) {
	readings := []ProviderReading{
		{Condition: ConditionCloudy},
		{Condition: ConditionClear},
	}
	for i := 0; i < 20; i++ {
		if got := SummarizeDay(time.Now(), readings).Condition; got != ConditionCloudy {
			t.Fatalf("expected cloudy on tie, got %s", got)
		}
	}
}

func TestSummarizeDayEmpty(t *testing.T) {
	day := SummarizeDay(time.Now(), nil)
	if day.Condition != ConditionUnknown {
		t.Fatalf("expected unknown condition, got %s", day.Condition)
	}
}

func TestDailyFromHourly(t *testing.T) {
	base := time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC)
	var hourly []ProviderReading
	for i := 0; i < 6; i++ {
		hourly = append(hourly, ProviderReading{
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			TemperatureC: float64(10 + i),
		})
	}

	days := DailyFromHourly(hourly, 7)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].MinTemp != 10 || days[0].MaxTemp != 11 {
		t.Fatalf("unexpected first day range %v..%v", days[0].MinTemp, days[0].MaxTemp)
	}
	if days[1].MinTemp != 12 || days[1].MaxTemp != 15 {
		t.Fatalf("unexpected second day range %v..%v", days[1].MinTemp, days[1].MaxTemp)
	}

	if got := DailyFromHourly(hourly, 1); len(got) != 1 || got[0].Date.Day() != 1 {
		t.Fatalf("expected the first day only, got %+v", got)
	}
}
