package utils

import (
	"gonum.org/v1/gonum/floats"
)

// CopyOf returns a freshly allocated copy of v
func CopyOf(v []float64) (r []float64) {
	r = make([]float64, len(v))
	copy(r, v)
	return
}

func ZeroArray(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

// Norm2 is the Euclidean norm of the coefficient vector
func Norm2(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// MaxAbs is the infinity norm of the coefficient vector
func MaxAbs(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, -1)
}

// Project zeroes the entries of v listed in dofs
func Project(v []float64, dofs []int) {
	for _, i := range dofs {
		v[i] = 0
	}
}

// AddScaled computes dst += alpha * s
func AddScaled(dst []float64, alpha float64, s []float64) {
	floats.AddScaled(dst, alpha, s)
}
