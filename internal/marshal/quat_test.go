package marshal

import (
	"math"
	"testing"
)

func quatClose(a, b [4]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestMat2Quat(t *testing.T) {
	s := math.Sqrt(0.5)
	tests := []struct {
		name string
		mat  [9]float64
		want [4]float64
	}{
		{"identity", [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, [4]float64{1, 0, 0, 0}},
		{"z 90", [9]float64{0, -1, 0, 1, 0, 0, 0, 0, 1}, [4]float64{s, 0, 0, s}},
		{"x 180", [9]float64{1, 0, 0, 0, -1, 0, 0, 0, -1}, [4]float64{0, 1, 0, 0}},
		{"y 180", [9]float64{-1, 0, 0, 0, 1, 0, 0, 0, -1}, [4]float64{0, 0, 1, 0}},
		{"z 180", [9]float64{-1, 0, 0, 0, -1, 0, 0, 0, 1}, [4]float64{0, 0, 0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Mat2Quat(tc.mat); !quatClose(got, tc.want) {
				t.Errorf("Mat2Quat = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMat2Quat_NonNegativeW(t *testing.T) {
	// 270 degrees about z.
	s := math.Sqrt(0.5)
	got := Mat2Quat([9]float64{0, 1, 0, -1, 0, 0, 0, 0, 1})
	if got[0] < 0 {
		t.Fatalf("w = %v, want non-negative", got[0])
	}
	if !quatClose(got, [4]float64{s, 0, 0, -s}) {
		t.Errorf("got %v", got)
	}
}

func TestQuats(t *testing.T) {
	got := Quats([][9]float64{{1, 0, 0, 0, 1, 0, 0, 0, 1}, {1, 0, 0, 0, 1, 0, 0, 0, 1}})
	if len(got) != 2 || got[1] != [4]float64{1, 0, 0, 0} {
		t.Errorf("got %v", got)
	}
}
