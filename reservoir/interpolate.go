package reservoir

import "slices"

// Interpolate fills missing readings linearly between the nearest present
// neighbours. Rows are treated as evenly spaced whatever their timestamps.
// Readings after the last present one repeat it; readings before the first
// present one stay missing. The input is left untouched.
func Interpolate(s Series) Series {
	out := slices.Clone(s)

	prev := -1
	for i := range out {
		if out[i].Missing() {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			from, to := out[prev].Value, out[i].Value
			steps := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				out[k].Value = from + (to-from)*float64(k-prev)/steps
			}
		}
		prev = i
	}

	if prev >= 0 {
		for k := prev + 1; k < len(out); k++ {
			out[k].Value = out[prev].Value
		}
	}
	return out
}
