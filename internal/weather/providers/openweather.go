package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

// OpenWeatherBaseURL is the One Call 3.0 endpoint.
const OpenWeatherBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

var errNoAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherProvider implements weather.Provider with OpenWeather One Call.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates the provider. An empty baseURL uses the public endpoint.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = OpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owCondition struct {
	Main string `json:"main"`
}

type owPoint struct {
	Dt        int64         `json:"dt"`
	Temp      float64       `json:"temp"`
	Humidity  float64       `json:"humidity"`
	Pressure  float64       `json:"pressure"`
	WindSpeed float64       `json:"wind_speed"`
	Rain      *owPrecip     `json:"rain"`
	Snow      *owPrecip     `json:"snow"`
	Weather   []owCondition `json:"weather"`
}

type owPrecip struct {
	OneH float64 `json:"1h"`
}

type owDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity  float64       `json:"humidity"`
	WindSpeed float64       `json:"wind_speed"`
	Rain      float64       `json:"rain"`
	Snow      float64       `json:"snow"`
	Weather   []owCondition `json:"weather"`
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.ProviderForecast, error) {
	if p.apiKey == "" {
		return weather.ProviderForecast{}, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
		values.Set("exclude", "minutely,alerts")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderForecast{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current owPoint   `json:"current"`
		Hourly  []owPoint `json:"hourly"`
		Daily   []owDaily `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderForecast{}, fmt.Errorf("decode openweather response: %w", err)
	}
	if payload.Current.Dt == 0 && len(payload.Hourly) == 0 {
		return weather.ProviderForecast{}, fmt.Errorf("openweather returned no forecast")
	}

	out := weather.ProviderForecast{
		Current: payload.Current.reading(),
		Hourly:  make([]weather.ProviderReading, 0, len(payload.Hourly)),
		Daily:   make([]weather.DailySummary, 0, len(payload.Daily)),
	}
	for _, h := range payload.Hourly {
		out.Hourly = append(out.Hourly, h.reading())
	}
	for _, d := range payload.Daily {
		ts := time.Unix(d.Dt, 0).UTC()
		out.Daily = append(out.Daily, weather.DailySummary{
			Date:         time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			MinTemp:      d.Temp.Min,
			MaxTemp:      d.Temp.Max,
			AvgHumidity:  d.Humidity,
			AvgWindSpeed: d.WindSpeed,
			TotalPrecip:  d.Rain + d.Snow,
			Condition:    mapOpenWeatherCondition(d.Weather),
		})
	}
	return out, nil
}

func (pt owPoint) reading() weather.ProviderReading {
	ts := time.Now().UTC()
	if pt.Dt > 0 {
		ts = time.Unix(pt.Dt, 0).UTC()
	}

	var precip float64
	if pt.Rain != nil {
		precip += pt.Rain.OneH
	}
	if pt.Snow != nil {
		precip += pt.Snow.OneH
	}

	return weather.ProviderReading{
		Timestamp:    ts,
		TemperatureC: pt.Temp,
		HumidityPct:  pt.Humidity,
		WindSpeedMS:  pt.WindSpeed,
		PressureHpa:  pt.Pressure,
		PrecipMm:     precip,
		Condition:    mapOpenWeatherCondition(pt.Weather),
	}
}

func mapOpenWeatherCondition(items []owCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
