package nn

import (
	"errors"
	"math"
)

var ErrEmptyVector = errors.New("vector must not be empty")

// Sigmoid is the logistic function 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// ArgMax returns the index of the first maximum.
func ArgMax(values []float64) (int, error) {
	if len(values) == 0 {
		return -1, ErrEmptyVector
	}
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best, nil
}

// Avg returns the arithmetic mean of values.
func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyVector
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}
