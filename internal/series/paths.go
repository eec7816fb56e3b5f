package series

import (
	"sort"
	"strconv"
	"strings"
)

// channelWildcard marks a path segment matching soil_ch<N> keys.
const channelWildcard = "soil_ch*"

const channelPrefix = "soil_ch"

// path is one candidate location of a sensor series inside a vendor payload.
type path []string

func (p path) String() string {
	return strings.Join(p, ".")
}

func (p path) wildcardIndex() int {
	for i, seg := range p {
		if seg == channelWildcard {
			return i
		}
	}
	return -1
}

func pathOf(dotted string) path {
	return strings.Split(dotted, ".")
}

// historyPaths lists, per kind, where a history series may live, most specific
// (processed) format first, flat legacy keys last.
var historyPaths = map[Kind][]path{
	KindTemperature: {
		pathOf("temperature.data"),
		pathOf("indoor.indoor.temperature.list"),
		pathOf("indoor.list.indoor.temperature.list"),
		pathOf("indoor.list.temperature.list"),
		pathOf("indoor.temperature.list"),
		pathOf("outdoor.temperature.list"),
		pathOf("temp1c"),
		pathOf("tempf"),
	},
	KindHumidity: {
		pathOf("humidity.data"),
		pathOf("indoor.indoor.humidity.list"),
		pathOf("indoor.list.indoor.humidity.list"),
		pathOf("indoor.list.humidity.list"),
		pathOf("indoor.humidity.list"),
		pathOf("outdoor.humidity.list"),
		pathOf("humidity1"),
		pathOf("humidity"),
		pathOf("humidityin"),
	},
	KindPressure: {
		pathOf("pressure.data"),
		pathOf("pressure.pressure.relative.list"),
		pathOf("pressure.list.relative.list"),
		pathOf("pressure.relative.list"),
		pathOf("pressure.absolute.list"),
		pathOf("baromrelin"),
		pathOf("baromabsin"),
	},
	KindSoilMoisture: {
		pathOf("soilMoisture.data"),
		pathOf("soil_ch*.soilmoisture.list"),
		pathOf("soil_ch*.list.soilmoisture.list"),
		pathOf("soilmoisture1"),
	},
}

// realtimePaths lists where a single current reading may live in a realtime snapshot.
var realtimePaths = map[Kind][]path{
	KindTemperature: {
		pathOf("indoor.temperature"),
		pathOf("outdoor.temperature"),
		pathOf("temp1c"),
		pathOf("tempf"),
		pathOf("tempinf"),
	},
	KindHumidity: {
		pathOf("indoor.humidity"),
		pathOf("outdoor.humidity"),
		pathOf("humidity1"),
		pathOf("humidity"),
		pathOf("humidityin"),
	},
	KindPressure: {
		pathOf("pressure.relative"),
		pathOf("pressure.absolute"),
		pathOf("baromrelin"),
		pathOf("baromabsin"),
	},
	KindSoilMoisture: {
		pathOf("soil_ch*.soilmoisture"),
		pathOf("soilmoisture1"),
	},
}

// navigate walks segs through nested objects. A missing key, a nil value or a
// non-object intermediate yields ok=false.
func navigate(node any, segs []string) (any, bool) {
	cur := node
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// match is a resolved candidate: the node found, its enclosing object and,
// for wildcard paths, the concrete channel key.
type match struct {
	node    any
	parent  map[string]any
	source  string
	channel string
}

// resolve expands a candidate path into its concrete matches. Paths without
// a wildcard yield at most one match; wildcard paths yield one per channel in
// ascending channel number.
func resolve(root map[string]any, cand path) []match {
	wi := cand.wildcardIndex()
	if wi < 0 {
		m, ok := resolveStatic(root, cand)
		if !ok {
			return nil
		}
		return []match{m}
	}

	container, ok := navigate(root, cand[:wi])
	if !ok {
		return nil
	}
	obj, ok := container.(map[string]any)
	if !ok {
		return nil
	}

	var matches []match
	for _, ch := range channelKeys(obj) {
		concrete := append(append(path{}, cand[:wi]...), ch)
		concrete = append(concrete, cand[wi+1:]...)
		m, ok := resolveStatic(root, concrete)
		if !ok {
			continue
		}
		m.channel = ch
		matches = append(matches, m)
	}
	return matches
}

func resolveStatic(root map[string]any, cand path) (match, bool) {
	node, ok := navigate(root, cand)
	if !ok {
		return match{}, false
	}
	var parent map[string]any
	if len(cand) > 1 {
		if v, ok := navigate(root, cand[:len(cand)-1]); ok {
			parent, _ = v.(map[string]any)
		}
	}
	return match{node: node, parent: parent, source: cand.String()}, true
}

// channelKeys returns the soil_ch<N> keys of obj ordered by N.
func channelKeys(obj map[string]any) []string {
	type chKey struct {
		key string
		n   int
	}
	var keys []chKey
	for k := range obj {
		if !strings.HasPrefix(k, channelPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(k, channelPrefix))
		if err != nil {
			continue
		}
		keys = append(keys, chKey{key: k, n: n})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].n < keys[j].n })

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}
