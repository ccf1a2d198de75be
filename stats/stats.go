// Package stats keeps the running summaries the bench reports: node and
// time distributions and solve rates with confidence intervals.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running is a streaming mean and variance (Welford's algorithm) that
// also remembers the extremes.
type Running struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (r *Running) Push(val float64) {
	r.n++
	if r.n == 1 {
		r.min, r.max = val, val
	}
	r.min = math.Min(r.min, val)
	r.max = math.Max(r.max, val)
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
}

func (r *Running) Count() int {
	return r.n
}

func (r *Running) Mean() float64 {
	return r.mean
}

// Variance is the sample variance; it is zero below two samples.
func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0.0
	}
	return r.m2 / float64(r.n-1)
}

func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

// StandardError returns the standard error of the mean.
func (r *Running) StandardError() float64 {
	if r.n == 0 {
		return 0.0
	}
	return math.Sqrt(r.Variance() / float64(r.n))
}

func (r *Running) Min() float64 {
	return r.min
}

func (r *Running) Max() float64 {
	return r.max
}

// MeanInterval is the normal-approximation confidence interval of the
// mean at the given confidence, in percent.
func (r *Running) MeanInterval(confidence float64) (float64, float64) {
	h := ZVal(confidence) * r.StandardError()
	return r.mean - h, r.mean + h
}

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// Proportion counts successes out of trials.
type Proportion struct {
	Hits   int
	Trials int
}

func (p *Proportion) Push(hit bool) {
	p.Trials++
	if hit {
		p.Hits++
	}
}

func (p Proportion) Rate() float64 {
	if p.Trials == 0 {
		return 0.0
	}
	return float64(p.Hits) / float64(p.Trials)
}

// Wilson returns the Wilson score interval of the rate. Unlike the normal
// approximation it stays inside [0, 1] and is usable at rates of 0 and 1.
func (p Proportion) Wilson(confidence float64) (float64, float64) {
	if p.Trials == 0 {
		return 0.0, 1.0
	}
	z := ZVal(confidence)
	n := float64(p.Trials)
	rate := p.Rate()
	denom := 1 + z*z/n
	center := (rate + z*z/(2*n)) / denom
	half := z * math.Sqrt(rate*(1-rate)/n+z*z/(4*n*n)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
