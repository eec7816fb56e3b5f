package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name     string
		points   []Point
		expected Stats
	}{
		{
			name:     "three values",
			points:   []Point{{Time: 0, Value: 10}, {Time: 1, Value: 20}, {Time: 2, Value: 30}},
			expected: Stats{Min: 10, Max: 30, Avg: 20, Count: 3, HasData: true},
		},
		{
			name:     "empty series",
			points:   nil,
			expected: Stats{Min: 0, Max: 0, Avg: 0, Count: 0, HasData: false},
		},
		{
			name:     "all zeros still has data",
			points:   []Point{{Time: 0, Value: 0}, {Time: 1, Value: 0}},
			expected: Stats{Min: 0, Max: 0, Avg: 0, Count: 2, HasData: true},
		},
		{
			name:     "negative values",
			points:   []Point{{Time: 0, Value: -4}, {Time: 1, Value: 2}},
			expected: Stats{Min: -4, Max: 2, Avg: -1, Count: 2, HasData: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeStats(tt.points))
		})
	}
}

func TestLatest(t *testing.T) {
	payload := decode(t, `{
		"indoor": {
			"temperature": {"time": "1700000100", "unit": "℃", "value": "22.4"},
			"humidity": {"time": "1700000100", "unit": "%", "value": "48"}
		},
		"pressure": {"relative": {"time": "1700000100", "unit": "hPa", "value": "1012.6"}},
		"soil_ch2": {"soilmoisture": {"time": "1700000100", "unit": "%", "value": "37"}},
		"soil_ch1": {"soilmoisture": {"time": "1700000100", "unit": "%", "value": "--"}}
	}`)

	all := LatestAll(payload)

	assert.Equal(t, Reading{Kind: KindTemperature, Value: 22.4, Unit: "℃", Time: 1700000100000, Source: "indoor.temperature"}, all[KindTemperature])
	assert.Equal(t, 48.0, all[KindHumidity].Value)
	assert.Equal(t, "pressure.relative", all[KindPressure].Source)
	assert.Equal(t, "soil_ch2.soilmoisture", all[KindSoilMoisture].Source)
	assert.Equal(t, 37.0, all[KindSoilMoisture].Value)
}

func TestLatest_FlatScalar(t *testing.T) {
	payload := decode(t, `{"tempf": "68.2", "humidity": 51}`)

	temp, ok := Latest(payload, KindTemperature)
	assert.True(t, ok)
	assert.Equal(t, 68.2, temp.Value)
	assert.Equal(t, "tempf", temp.Source)

	hum, ok := Latest(payload, KindHumidity)
	assert.True(t, ok)
	assert.Equal(t, 51.0, hum.Value)

	_, ok = Latest(payload, KindPressure)
	assert.False(t, ok)
}
