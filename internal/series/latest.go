package series

import (
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
)

// Latest finds the current reading for kind in a realtime snapshot. Vendor
// snapshots carry either {"time", "unit", "value"} objects or bare scalars
// under flat legacy keys.
func Latest(payload map[string]any, kind Kind) (Reading, bool) {
	if payload == nil {
		return Reading{}, false
	}
	for _, cand := range realtimePaths[kind] {
		for _, m := range resolve(payload, cand) {
			if r, ok := toReading(m.node); ok {
				r.Kind = kind
				r.Source = m.source
				return r, true
			}
		}
	}
	return Reading{}, false
}

// LatestAll collects the current readings available in a realtime snapshot.
func LatestAll(payload map[string]any) map[Kind]Reading {
	out := make(map[Kind]Reading)
	for _, k := range AllKinds {
		if r, ok := Latest(payload, k); ok {
			out[k] = r
		}
	}
	return out
}

func toReading(node any) (Reading, bool) {
	obj, ok := node.(map[string]any)
	if !ok {
		v, ok := common.ToFloat(node)
		return Reading{Value: v}, ok
	}

	v, ok := common.ToFloat(obj["value"])
	if !ok {
		return Reading{}, false
	}
	r := Reading{Value: v, Unit: common.ToString(obj["unit"])}
	if ts, ok := common.ToFloat(obj["time"]); ok {
		r.Time = int64(ts) * 1000
	}
	return r, true
}
