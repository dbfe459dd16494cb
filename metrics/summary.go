package metrics

// Summary is the count, mean and range of a set of samples.
type Summary struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func Summarize(ms []Metric) Summary {
	if len(ms) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(ms), Min: ms[0].Value, Max: ms[0].Value}
	var total float64
	for _, m := range ms {
		total += m.Value
		s.Min = min(s.Min, m.Value)
		s.Max = max(s.Max, m.Value)
	}
	s.Avg = total / float64(len(ms))
	return s
}
