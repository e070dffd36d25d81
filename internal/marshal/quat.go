package marshal

import "math"

// Mat2Quat converts a row-major 3x3 rotation matrix into a unit quaternion
// (w, x, y, z), choosing the numerically stable branch like mju_mat2Quat.
func Mat2Quat(m [9]float64) [4]float64 {
	var q [4]float64
	if tr := m[0] + m[4] + m[8]; tr > 0 {
		q[0] = 0.5 * math.Sqrt(tr+1)
		q[1] = (m[7] - m[5]) / (4 * q[0])
		q[2] = (m[2] - m[6]) / (4 * q[0])
		q[3] = (m[3] - m[1]) / (4 * q[0])
	} else if m[0] > m[4] && m[0] > m[8] {
		q[1] = 0.5 * math.Sqrt(1+m[0]-m[4]-m[8])
		q[0] = (m[7] - m[5]) / (4 * q[1])
		q[2] = (m[1] + m[3]) / (4 * q[1])
		q[3] = (m[2] + m[6]) / (4 * q[1])
	} else if m[4] > m[8] {
		q[2] = 0.5 * math.Sqrt(1-m[0]+m[4]-m[8])
		q[0] = (m[2] - m[6]) / (4 * q[2])
		q[1] = (m[1] + m[3]) / (4 * q[2])
		q[3] = (m[5] + m[7]) / (4 * q[2])
	} else {
		q[3] = 0.5 * math.Sqrt(1-m[0]-m[4]+m[8])
		q[0] = (m[3] - m[1]) / (4 * q[3])
		q[1] = (m[2] + m[6]) / (4 * q[3])
		q[2] = (m[5] + m[7]) / (4 * q[3])
	}
	return normalize(q)
}

// Quats converts per-entity rotation matrices into quaternions.
func Quats(mats [][9]float64) [][4]float64 {
	out := make([][4]float64, len(mats))
	for i, m := range mats {
		out[i] = Mat2Quat(m)
	}
	return out
}

func normalize(q [4]float64) [4]float64 {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n < 1e-15 {
		return [4]float64{1, 0, 0, 0}
	}
	for i := range q {
		q[i] /= n
	}
	// Keep w non-negative so equal rotations compare equal.
	if q[0] < 0 {
		for i := range q {
			q[i] = -q[i]
		}
	}
	return q
}
