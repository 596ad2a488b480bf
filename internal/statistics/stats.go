package statistics

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle element of the sorted input. For even counts it
// returns the lower-middle element rather than averaging the two middles, so
// the reported median is always a value that actually occurred.
// The input must already be sorted ascending.
func Median(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	return sorted[(len(sorted)-1)/2]
}

// Percentile returns the element at index floor(p * n) of the sorted input,
// clamped to the last element. p should be in [0, 1].
// The input must already be sorted ascending.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Histogram counts occurrences of each exact value. Keys are the shortest
// decimal representation of the value, so 2 and 2.0 share a bucket.
func Histogram(values []float64) map[string]int {
	buckets := make(map[string]int, len(values))
	for _, v := range values {
		buckets[strconv.FormatFloat(v, 'g', -1, 64)]++
	}
	return buckets
}

// ConfidenceInterval holds the result of a bootstrap confidence interval
// computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// BootstrapCI computes a percentile-method bootstrap confidence interval over
// the given values. confidenceLevel should be in (0, 1), e.g. 0.95. With
// fewer than 2 data points the interval collapses to the mean.
func BootstrapCI(values []float64, confidenceLevel float64) ConfidenceInterval {
	return BootstrapCIWithSeed(values, confidenceLevel, -1)
}

// BootstrapCIWithSeed is like BootstrapCI but accepts a seed for
// reproducibility. A negative seed uses a non-deterministic source.
func BootstrapCIWithSeed(values []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(values)
	m := Mean(values)

	if n < 2 {
		return ConfidenceInterval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: confidenceLevel,
		}
	}

	src := rand.NewSource(seed)
	if seed < 0 {
		src = rand.NewSource(rand.Int63())
	}
	rng := rand.New(src)

	iters := DefaultBootstrapIterations
	bootMeans := make([]float64, iters)
	resample := make([]float64, n)

	for i := range bootMeans {
		for j := range resample {
			resample[j] = values[rng.Intn(n)]
		}
		bootMeans[i] = Mean(resample)
	}

	sort.Float64s(bootMeans)

	alpha := 1.0 - confidenceLevel
	lo := int(math.Floor(alpha / 2.0 * float64(iters)))
	hi := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hi >= iters {
		hi = iters - 1
	}

	return ConfidenceInterval{
		Lower:           bootMeans[lo],
		Upper:           bootMeans[hi],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}
