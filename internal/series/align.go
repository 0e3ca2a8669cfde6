package series

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when the aligner receives no series or an empty one.
var ErrInvalidInput = errors.New("series: invalid input")

// Point locates a value on the shared index domain.
type Point struct {
	Index int
	Value float64
}

// Result holds every input resampled onto [0, maxLength) plus their mean.
type Result struct {
	Resampled [][]float64
	Average   []float64
	Extreme   Point
}

// Len is the length of the shared index domain.
func (r Result) Len() int {
	return len(r.Average)
}

// AlignAndAverage resamples each series onto the domain of the longest one,
// averages them index by index, and reports the first maximum of the average.
//
// Indices past the end of a shorter series hold its last value; nothing is
// extrapolated.
func AlignAndAverage(series [][]float64) (Result, error) {
	if len(series) == 0 {
		return Result{}, fmt.Errorf("%w: no series given", ErrInvalidInput)
	}

	maxLength := 0
	for i, s := range series {
		if len(s) == 0 {
			return Result{}, fmt.Errorf("%w: series %d is empty", ErrInvalidInput, i)
		}
		if len(s) > maxLength {
			maxLength = len(s)
		}
	}

	resampled := make([][]float64, len(series))
	for i, s := range series {
		resampled[i] = resample(s, maxLength)
	}

	average := make([]float64, maxLength)
	for _, r := range resampled {
		for x, v := range r {
			average[x] += v
		}
	}
	n := float64(len(series))
	for x := range average {
		average[x] /= n
	}

	return Result{
		Resampled: resampled,
		Average:   average,
		Extreme:   maxPoint(average),
	}, nil
}

func resample(s []float64, length int) []float64 {
	last := len(s) - 1
	out := make([]float64, length)
	for i := range out {
		x := float64(i)
		low := clamp(int(math.Floor(x)), 0, last)
		high := clamp(low+1, 0, last)
		if high == low {
			out[i] = s[low]
			continue
		}
		t := x - float64(low)
		out[i] = s[low]*(1-t) + s[high]*t
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// maxPoint returns the first occurrence of the largest value.
func maxPoint(values []float64) Point {
	best := Point{Index: 0, Value: values[0]}
	for i := 1; i < len(values); i++ {
		if values[i] > best.Value {
			best = Point{Index: i, Value: values[i]}
		}
	}
	return best
}
