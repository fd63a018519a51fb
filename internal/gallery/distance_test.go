package gallery

import (
	"math"
	"testing"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a    Descriptor
		b    Descriptor
		want float64
	}{
		{"identical", Descriptor{1, 2, 3}, Descriptor{1, 2, 3}, 0},
		{"unit apart", Descriptor{0, 0}, Descriptor{1, 0}, 1},
		{"pythagorean", Descriptor{0, 0}, Descriptor{3, 4}, 5},
		{"negative components", Descriptor{-1, -1}, Descriptor{1, 1}, 2 * math.Sqrt2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EuclideanDistance(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("EuclideanDistance() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEuclideanDistance_Invalid(t *testing.T) {
	if d := EuclideanDistance(Descriptor{1, 2}, Descriptor{1, 2, 3}); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for mismatched dimensions, got %v", d)
	}
	if d := EuclideanDistance(nil, nil); !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for empty vectors, got %v", d)
	}
}

// descriptorAtDistance builds a descriptor exactly dist away from a zero vector.
func descriptorAtDistance(dim int, dist float64) Descriptor {
	d := make(Descriptor, dim)
	d[0] = float32(dist)
	return d
}

func TestMatches_ThresholdBoundary(t *testing.T) {
	query := make(Descriptor, 4)

	near := descriptorAtDistance(4, 0.49)
	far := descriptorAtDistance(4, 0.51)
	exact := descriptorAtDistance(4, 0.5)

	if !Matches(query, []Descriptor{near}, 0.5) {
		t.Error("distance 0.49 must match at threshold 0.5")
	}
	if Matches(query, []Descriptor{far}, 0.5) {
		t.Error("distance 0.51 must not match at threshold 0.5")
	}
	if Matches(query, []Descriptor{exact}, 0.5) {
		t.Error("distance exactly 0.5 must not match, the comparison is strict")
	}
}

func TestMatches_AnyDescriptorSuffices(t *testing.T) {
	query := make(Descriptor, 4)
	stored := []Descriptor{
		descriptorAtDistance(4, 0.9),
		descriptorAtDistance(4, 0.3),
		descriptorAtDistance(4, 0.7),
	}

	if !Matches(query, stored, 0.5) {
		t.Error("one descriptor within the threshold should be enough")
	}
	if Matches(query, nil, 0.5) {
		t.Error("a photo without descriptors can never match")
	}
}
