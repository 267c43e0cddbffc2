// Package evaluation scores engine output against optional ground truth.
// Every computation here is a pure function: identical input yields identical
// output, so the same code backs regression checks and live dashboards.
package evaluation

import (
	"math"
	"sort"
	"time"

	"github.com/parthgeek/tally/internal/model"
)

// Sample is one (result, optional ground truth) evaluation pair.
type Sample struct {
	Result  model.CategorizationResult
	Truth   string // Expected category slug; empty means no ground truth
	Err     string // Per-sample degradation or failure; empty means clean
	Latency time.Duration
}

// histogramBuckets is the fixed confidence bucket count: edges at 0.1
// increments across [0,1].
const histogramBuckets = 10

// LatencyStats summarizes sample latencies via nearest-rank selection.
type LatencyStats struct {
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
}

// ConfidenceStats summarizes the defined confidences in a result set. The
// histogram bucket counts always sum to Defined.
type ConfidenceStats struct {
	Histogram [histogramBuckets]int
	Mean      float64
	Defined   int
}

// CategoryScore is per-category precision/recall over ground-truthed samples.
type CategoryScore struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// CalibrationBin relates stated confidence to empirical accuracy within one
// histogram bucket.
type CalibrationBin struct {
	MeanConfidence float64
	Accuracy       float64
	Count          int
}

// AccuracyStats is only computed when at least one sample carries ground
// truth. Confusion is keyed true label first, predicted label second, over
// the union of both label sets.
type AccuracyStats struct {
	PerCategory map[string]CategoryScore
	Confusion   map[string]map[string]int
	Calibration [histogramBuckets]CalibrationBin
	Overall     float64
	Correct     int
	Total       int
}

// Metrics is the full evaluation summary for a result set.
type Metrics struct {
	ByEngine   map[model.EngineTag]int
	Accuracy   *AccuracyStats
	Confidence ConfidenceStats
	Latency    LatencyStats
	Total      int
	Errors     int
}

// Compute builds the metrics for a set of samples.
func Compute(samples []Sample) Metrics {
	m := Metrics{
		Total:    len(samples),
		ByEngine: make(map[model.EngineTag]int),
	}

	var latencies []time.Duration
	var confidences []float64
	var truthed []Sample

	for _, s := range samples {
		if s.Result.Engine != "" {
			m.ByEngine[s.Result.Engine]++
		}
		if s.Err != "" {
			m.Errors++
		}
		if s.Latency > 0 {
			latencies = append(latencies, s.Latency)
		}
		if s.Result.Confidence != nil {
			confidences = append(confidences, *s.Result.Confidence)
		}
		if s.Truth != "" {
			truthed = append(truthed, s)
		}
	}

	m.Latency = computeLatency(latencies)
	m.Confidence = computeConfidence(confidences)
	if len(truthed) > 0 {
		m.Accuracy = computeAccuracy(truthed)
	}

	return m
}

func computeLatency(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return LatencyStats{
		Mean: sum / time.Duration(len(sorted)),
		P50:  nearestRank(sorted, 50),
		P95:  nearestRank(sorted, 95),
		P99:  nearestRank(sorted, 99),
	}
}

// nearestRank selects the pct-th percentile of a sorted sample: the value at
// rank ceil(pct/100 * n), 1-based.
func nearestRank(sorted []time.Duration, pct float64) time.Duration {
	rank := int(math.Ceil(pct / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func computeConfidence(confidences []float64) ConfidenceStats {
	stats := ConfidenceStats{Defined: len(confidences)}
	if len(confidences) == 0 {
		return stats
	}

	var sum float64
	for _, c := range confidences {
		sum += c
		stats.Histogram[bucketIndex(c)]++
	}
	stats.Mean = sum / float64(len(confidences))
	return stats
}

// bucketIndex maps a confidence in [0,1] to its histogram bucket. Boundary
// values land in the bucket whose upper edge equals the value: 0.1 is bucket
// 0, 0.2 is bucket 1, and so on. Zero goes in bucket 0 and 1.0 in bucket 9.
func bucketIndex(conf float64) int {
	idx := int(math.Ceil(conf*histogramBuckets)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= histogramBuckets {
		idx = histogramBuckets - 1
	}
	return idx
}

func computeAccuracy(samples []Sample) *AccuracyStats {
	stats := &AccuracyStats{
		PerCategory: make(map[string]CategoryScore),
		Confusion:   make(map[string]map[string]int),
		Total:       len(samples),
	}

	labels := make(map[string]bool)
	truePositive := make(map[string]int)
	predictedCount := make(map[string]int)
	trueCount := make(map[string]int)

	type binAccum struct {
		confSum float64
		correct int
		count   int
	}
	var bins [histogramBuckets]binAccum

	for _, s := range samples {
		predicted := s.Result.CategorySlug
		labels[s.Truth] = true
		if predicted != "" {
			labels[predicted] = true
		}

		if stats.Confusion[s.Truth] == nil {
			stats.Confusion[s.Truth] = make(map[string]int)
		}
		stats.Confusion[s.Truth][predicted]++

		trueCount[s.Truth]++
		predictedCount[predicted]++

		correct := predicted == s.Truth
		if correct {
			truePositive[predicted]++
			stats.Correct++
		}

		if s.Result.Confidence != nil {
			idx := bucketIndex(*s.Result.Confidence)
			bins[idx].count++
			bins[idx].confSum += *s.Result.Confidence
			if correct {
				bins[idx].correct++
			}
		}
	}

	stats.Overall = float64(stats.Correct) / float64(stats.Total)

	for label := range labels {
		if label == "" {
			continue
		}
		score := CategoryScore{Support: trueCount[label]}
		if predictedCount[label] > 0 {
			score.Precision = float64(truePositive[label]) / float64(predictedCount[label])
		}
		if trueCount[label] > 0 {
			score.Recall = float64(truePositive[label]) / float64(trueCount[label])
		}
		if score.Precision+score.Recall > 0 {
			score.F1 = 2 * score.Precision * score.Recall / (score.Precision + score.Recall)
		}
		stats.PerCategory[label] = score
	}

	for i, b := range bins {
		if b.count == 0 {
			continue
		}
		stats.Calibration[i] = CalibrationBin{
			Count:          b.count,
			MeanConfidence: b.confSum / float64(b.count),
			Accuracy:       float64(b.correct) / float64(b.count),
		}
	}

	return stats
}
