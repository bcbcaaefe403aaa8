package utils

import (
	"fmt"
	"math"
)

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same dimension (%d != %d)", len(a), len(b))
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Magnitude calculates the L2 norm of a vector.
func Magnitude(a []float32) float32 {
	var sumOfSquares float64
	for _, v := range a {
		sumOfSquares += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sumOfSquares))
}

// CosineSimilarity returns sim(a,b) = (a.b)/(|a|*|b|) in [-1, 1].
// A zero-magnitude vector yields similarity 0.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}

	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (magA * magB), nil
}
