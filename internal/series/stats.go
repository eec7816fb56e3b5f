package series

// ComputeStats returns min, max and average over the point values.
// An empty series yields zeros with HasData=false.
func ComputeStats(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}

	lo, hi, sum := points[0].Value, points[0].Value, 0.0
	for _, pt := range points {
		if pt.Value < lo {
			lo = pt.Value
		}
		if pt.Value > hi {
			hi = pt.Value
		}
		sum += pt.Value
	}

	return Stats{
		Min:     lo,
		Max:     hi,
		Avg:     sum / float64(len(points)),
		Count:   len(points),
		HasData: true,
	}
}
