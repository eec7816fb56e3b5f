package series

// Kind identifies a sensor family the normalizer knows how to locate.
type Kind string

const (
	KindTemperature  Kind = "temperature"
	KindHumidity     Kind = "humidity"
	KindPressure     Kind = "pressure"
	KindSoilMoisture Kind = "soilMoisture"
)

// AllKinds lists the kinds in report order.
var AllKinds = []Kind{KindTemperature, KindHumidity, KindPressure, KindSoilMoisture}

// Point is a single normalized sample. Time is epoch milliseconds.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Stats summarizes the values of a series. HasData distinguishes an empty
// series from one whose values are all zero.
type Stats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Avg     float64 `json:"avg"`
	Count   int     `json:"count"`
	HasData bool    `json:"hasData"`
}

// Series is the canonical, vendor-independent time series for one sensor kind.
// Points are sorted by Time ascending.
type Series struct {
	Kind   Kind    `json:"kind"`
	Points []Point `json:"points"`
	Stats  Stats   `json:"stats"`

	// Source is the candidate path that produced the points.
	Source string `json:"source,omitempty"`
	Unit   string `json:"unit,omitempty"`

	// Soil moisture only: primary channel key and number of channels with data.
	Channel      string `json:"channel,omitempty"`
	ChannelCount int    `json:"channelCount,omitempty"`

	// Skipped counts vendor values that could not be parsed as numbers.
	Skipped int `json:"skipped,omitempty"`
}

// Empty reports whether the series carries no points.
func (s Series) Empty() bool {
	return len(s.Points) == 0
}

// Reading is a single current value taken from a realtime snapshot.
type Reading struct {
	Kind   Kind    `json:"kind"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	Time   int64   `json:"time,omitempty"`
	Source string  `json:"source"`
}
