package scoring

// TercileLabels names the three bands of a tercile split, best first.
type TercileLabels struct {
	High string
	Mid  string
	Low  string
}

// Terciles labels each present entry of a series by its tercile: at or below
// the 33.3rd percentile gets Low, at or above the 66.6th gets High, the rest
// Mid. Missing entries are not labeled; callers that need a label for a
// missing region use Mid.
func Terciles(s Series, labels TercileLabels) map[string]string {
	out := make(map[string]string, len(s))
	if len(s) == 0 {
		return out
	}

	vals := make([]float64, 0, len(s))
	for _, v := range s {
		vals = append(vals, v)
	}
	q1 := Percentile(vals, 33.333)
	q2 := Percentile(vals, 66.666)

	for k, v := range s {
		switch {
		case v <= q1:
			out[k] = labels.Low
		case v >= q2:
			out[k] = labels.High
		default:
			out[k] = labels.Mid
		}
	}
	return out
}
