package gallery

import "math"

// EuclideanDistance computes the Euclidean distance between two descriptors.
// Returns +Inf for mismatched or empty vectors so that malformed data can
// never satisfy a match threshold.
func EuclideanDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Matches reports whether any of the photo's stored descriptors lies within
// threshold of the query descriptor. The comparison is strict: a distance
// exactly at the threshold does not match.
func Matches(query Descriptor, stored []Descriptor, threshold float64) bool {
	for _, d := range stored {
		if EuclideanDistance(query, d) < threshold {
			return true
		}
	}
	return false
}
