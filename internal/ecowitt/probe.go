package ecowitt

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
)

// Status is the outcome of a probed fetch that did not fail outright.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusRateLimited Status = "rate_limited"
)

// Result is the outcome of a probed fetch. Transport and auth failures are
// returned as errors instead, so callers branch on Status for the soft cases.
type Result struct {
	Status Status         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`

	// Probe names the strategy that produced Data.
	Probe     string       `json:"probe,omitempty"`
	Attempted []string     `json:"attempted"`
	Diag      *Diagnostics `json:"diagnostics,omitempty"`
}

// OK reports whether the result carries data.
func (r Result) OK() bool {
	return r.Status == StatusOK && len(r.Data) > 0
}

// Diagnostics explains why a probed fetch came back without data.
type Diagnostics struct {
	Endpoint      string   `json:"endpoint"`
	Attempted     []string `json:"attempted"`
	LikelyCauses  []string `json:"likelyCauses"`
	VendorCode    int      `json:"vendorCode"`
	VendorMessage string   `json:"vendorMessage,omitempty"`
}

// Probe is one parameter variation in a probe chain. Set and Remove are
// applied on top of the base parameters; FromRoot issues no request and
// instead inspects the top level of the previous response.
type Probe struct {
	Name     string
	Set      map[string]string
	Remove   []string
	FromRoot bool
}

func (p Probe) apply(base url.Values) url.Values {
	out := make(url.Values, len(base))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for _, k := range p.Remove {
		out.Del(k)
	}
	for k, v := range p.Set {
		out.Set(k, v)
	}
	return out
}

// envelopeKeys are the non-sensor top-level keys of a vendor response.
var envelopeKeys = map[string]struct{}{
	"code": {}, "msg": {}, "time": {}, "data": {},
}

// probe walks chain in order and returns the first non-empty data. A vendor
// rate limit that survives the single retry stops the chain. When every probe
// comes back empty the result carries diagnostics built from the attempts.
// Only the first probe's vendor rejection is fatal; later rejections are
// skipped and reported in the diagnostics.
func (c *Client) probe(ctx context.Context, endpoint string, base url.Values, chain []Probe, causes []string) (Result, error) {
	var (
		attempted []string
		last      *envelope
		rejected  *envelope
	)

	for i, pr := range chain {
		attempted = append(attempted, pr.Name)
		metrics.VendorProbeAttempts.WithLabelValues(endpoint, pr.Name).Inc()

		if pr.FromRoot {
			if last == nil {
				continue
			}
			if data := sensorKeys(last.Root); len(data) > 0 {
				return Result{Status: StatusOK, Data: data, Probe: pr.Name, Attempted: attempted}, nil
			}
			continue
		}

		env, err := c.getWithRateLimit(ctx, endpoint, pr.apply(base))
		if err != nil {
			return Result{}, err
		}

		if env.rateLimited() {
			return Result{
				Status:    StatusRateLimited,
				Attempted: attempted,
				Diag: &Diagnostics{
					Endpoint:      endpoint,
					Attempted:     attempted,
					LikelyCauses:  []string{"vendor rate limit: requests for this application key are too frequent"},
					VendorCode:    env.Code,
					VendorMessage: env.Message,
				},
			}, nil
		}
		if env.Code != 0 {
			// The first probe carries the stored parameters unchanged, so a
			// rejection there means bad credentials or an unknown MAC.
			if i == 0 {
				return Result{}, apperr.VendorAPI(
					fmt.Sprintf("ecowitt %s rejected request: %s (code %d)", endpoint, env.Message, env.Code), nil)
			}
			rejected = &env
			c.logger.Debug("[EcoWitt] probe rejected by vendor",
				zap.String("endpoint", endpoint),
				zap.String("probe", pr.Name),
				zap.Int("vendor_code", env.Code),
				zap.String("vendor_msg", env.Message),
			)
			continue
		}
		last = &env

		if data, ok := nonEmptyObject(env.Data); ok {
			if len(attempted) > 1 {
				c.logger.Info("[EcoWitt] fallback probe returned data",
					zap.String("endpoint", endpoint),
					zap.String("probe", pr.Name),
					zap.Strings("attempted", attempted),
				)
			}
			return Result{Status: StatusOK, Data: data, Probe: pr.Name, Attempted: attempted}, nil
		}

		c.logger.Debug("[EcoWitt] probe returned no data",
			zap.String("endpoint", endpoint),
			zap.String("probe", pr.Name),
		)
	}

	diag := &Diagnostics{
		Endpoint:     endpoint,
		Attempted:    attempted,
		LikelyCauses: causes,
	}
	switch {
	case rejected != nil:
		diag.VendorCode = rejected.Code
		diag.VendorMessage = rejected.Message
	case last != nil:
		diag.VendorCode = last.Code
		diag.VendorMessage = last.Message
	}
	return Result{Status: StatusEmpty, Attempted: attempted, Diag: diag}, nil
}

func nonEmptyObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// sensorKeys returns the top-level sensor readings of root. A reading is a
// non-empty object or, for flat legacy keys, a numeric scalar. Envelope and
// identifier keys are never readings.
func sensorKeys(root map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range root {
		if _, skip := envelopeKeys[k]; skip || strings.HasSuffix(strings.ToLower(k), "id") {
			continue
		}
		if group, ok := nonEmptyObject(v); ok {
			out[k] = group
			continue
		}
		if _, ok := common.ToFloat(v); ok {
			out[k] = v
		}
	}
	return out
}
