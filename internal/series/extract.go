package series

import (
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
)

// Extract locates the series for kind inside a history payload and converts it
// into sorted points. Candidates are tried in table order and the first one
// holding at least one epoch-keyed entry wins; later candidates are never
// merged in. A payload without any candidate yields an empty series.
//
// Extract is a pure function of its input.
func Extract(payload map[string]any, kind Kind) Series {
	out := Series{Kind: kind, Points: []Point{}}
	if payload == nil {
		return out
	}

	var (
		winner   *match
		mapping  map[string]any
		channels = make(map[string]struct{})
	)

	for _, cand := range historyPaths[kind] {
		for _, m := range resolve(payload, cand) {
			mp, ok := timeMapping(m.node)
			if !ok {
				continue
			}
			if m.channel != "" {
				channels[m.channel] = struct{}{}
			}
			if winner == nil {
				m := m
				winner = &m
				mapping = mp
			}
		}
		// Channel paths keep scanning so every populated channel is counted.
		if winner != nil && cand.wildcardIndex() < 0 {
			break
		}
	}

	if winner == nil {
		return out
	}

	out.Source = winner.source
	out.Channel = winner.channel
	out.Unit = unitOf(winner)
	out.Points, out.Skipped = toPoints(mapping)
	out.Stats = ComputeStats(out.Points)

	if kind == KindSoilMoisture {
		out.ChannelCount = len(channels)
		if out.ChannelCount == 0 {
			out.ChannelCount = 1
		}
	}
	return out
}

// ExtractAll runs Extract for every kind.
func ExtractAll(payload map[string]any) map[Kind]Series {
	out := make(map[Kind]Series, len(AllKinds))
	for _, k := range AllKinds {
		out[k] = Extract(payload, k)
	}
	return out
}

// timeMapping unwraps node into an epoch-seconds keyed mapping. Objects of the
// form {"unit": ..., "list": {...}} are unwrapped to their list. The mapping
// counts as populated only if at least one key parses as an epoch.
func timeMapping(node any) (map[string]any, bool) {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, false
	}
	if list, ok := obj["list"].(map[string]any); ok {
		obj = list
	}
	for k := range obj {
		if _, err := strconv.ParseInt(k, 10, 64); err == nil {
			return obj, true
		}
	}
	return nil, false
}

func unitOf(m *match) string {
	if obj, ok := m.node.(map[string]any); ok {
		if u := common.ToString(obj["unit"]); u != "" {
			return u
		}
	}
	if m.parent != nil {
		return common.ToString(m.parent["unit"])
	}
	return ""
}

// toPoints converts an epoch-seconds mapping into points sorted by time.
// Non-epoch keys are structural and ignored. Non-numeric values and
// timestamps that do not fit in epoch milliseconds are dropped and counted.
func toPoints(mapping map[string]any) ([]Point, int) {
	points := make([]Point, 0, len(mapping))
	skipped := 0
	for k, v := range mapping {
		sec, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		if sec < 0 || sec > math.MaxInt64/1000 {
			skipped++
			continue
		}
		val, ok := common.ToFloat(v)
		if !ok {
			skipped++
			continue
		}
		points = append(points, Point{Time: sec * 1000, Value: val})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	return points, skipped
}

// Normalizer wraps Extract with logging of data-quality problems.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Extract behaves like the package-level Extract and warns about skipped values.
func (n *Normalizer) Extract(payload map[string]any, kind Kind) Series {
	s := Extract(payload, kind)
	if s.Skipped > 0 {
		metrics.SeriesValuesSkipped.WithLabelValues(string(kind)).Add(float64(s.Skipped))
		n.logger.Warn("[Normalizer] skipped malformed series values",
			zap.String("kind", string(kind)),
			zap.String("source", s.Source),
			zap.Int("skipped", s.Skipped),
			zap.Int("kept", len(s.Points)),
		)
	}
	return s
}

// ExtractAll runs Extract for every kind.
func (n *Normalizer) ExtractAll(payload map[string]any) map[Kind]Series {
	out := make(map[Kind]Series, len(AllKinds))
	for _, k := range AllKinds {
		out[k] = n.Extract(payload, k)
	}
	return out
}
