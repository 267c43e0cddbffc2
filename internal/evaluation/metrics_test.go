package evaluation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthgeek/tally/internal/model"
)

func sample(slug string, conf float64, truth string, latency time.Duration) Sample {
	return Sample{
		Result: model.CategorizationResult{
			CategorySlug: slug,
			Confidence:   model.Float64(conf),
			Engine:       model.EnginePass1,
		},
		Truth:   truth,
		Latency: latency,
	}
}

func TestNearestRankPercentiles(t *testing.T) {
	samples := []Sample{
		sample("travel", 0.9, "", 50*time.Millisecond),
		sample("travel", 0.9, "", 100*time.Millisecond),
		sample("travel", 0.9, "", 150*time.Millisecond),
	}

	m := Compute(samples)

	// With n=3: p50 is rank ceil(1.5)=2, p95 and p99 are rank 3.
	assert.Equal(t, 100*time.Millisecond, m.Latency.Mean)
	assert.Equal(t, 100*time.Millisecond, m.Latency.P50)
	assert.Equal(t, 150*time.Millisecond, m.Latency.P95)
	assert.Equal(t, 150*time.Millisecond, m.Latency.P99)
}

func TestNearestRankSingleSample(t *testing.T) {
	m := Compute([]Sample{sample("travel", 0.9, "", 42*time.Millisecond)})

	assert.Equal(t, 42*time.Millisecond, m.Latency.P50)
	assert.Equal(t, 42*time.Millisecond, m.Latency.P99)
}

func TestConfidenceHistogramBuckets(t *testing.T) {
	tests := []struct {
		conf       float64
		wantBucket int
	}{
		{0.0, 0},
		{0.05, 0},
		{0.1, 0}, // boundary lands in the bucket it closes
		{0.11, 1},
		{0.2, 1},
		{0.5, 4},
		{0.95, 9},
		{1.0, 9},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("conf=%.2f", tt.conf), func(t *testing.T) {
			assert.Equal(t, tt.wantBucket, bucketIndex(tt.conf))
		})
	}
}

func TestConfidenceStats(t *testing.T) {
	samples := []Sample{
		sample("a", 0.3, "", 0),
		sample("b", 0.7, "", 0),
		sample("c", 1.0, "", 0),
		{Result: model.CategorizationResult{CategorySlug: "d", Engine: model.EngineLLM}}, // nil confidence
	}

	m := Compute(samples)

	assert.Equal(t, 3, m.Confidence.Defined)
	assert.InDelta(t, (0.3+0.7+1.0)/3, m.Confidence.Mean, 1e-9)

	total := 0
	for _, n := range m.Confidence.Histogram {
		total += n
	}
	assert.Equal(t, m.Confidence.Defined, total, "histogram must sum to the defined count")
	assert.Equal(t, 1, m.Confidence.Histogram[2])
	assert.Equal(t, 1, m.Confidence.Histogram[6])
	assert.Equal(t, 1, m.Confidence.Histogram[9])
}

func TestAccuracyStats(t *testing.T) {
	samples := []Sample{
		sample("travel", 0.9, "travel", 0),
		sample("travel", 0.8, "travel", 0),
		sample("payroll", 0.9, "travel", 0),
		sample("payroll", 0.7, "payroll", 0),
		sample("miscellaneous", 0.3, "payroll", 0),
	}

	m := Compute(samples)
	require.NotNil(t, m.Accuracy)

	assert.Equal(t, 5, m.Accuracy.Total)
	assert.Equal(t, 3, m.Accuracy.Correct)
	assert.InDelta(t, 0.6, m.Accuracy.Overall, 1e-9)

	travel := m.Accuracy.PerCategory["travel"]
	assert.InDelta(t, 1.0, travel.Precision, 1e-9)      // 2 predicted, both right
	assert.InDelta(t, 2.0/3.0, travel.Recall, 1e-9)     // 3 true, 2 found
	assert.Equal(t, 3, travel.Support)

	payroll := m.Accuracy.PerCategory["payroll"]
	assert.InDelta(t, 0.5, payroll.Precision, 1e-9)
	assert.InDelta(t, 0.5, payroll.Recall, 1e-9)
	assert.InDelta(t, 0.5, payroll.F1, 1e-9)
	assert.Equal(t, 2, payroll.Support)

	// Confusion matrix diagonal holds the correct counts.
	assert.Equal(t, 2, m.Accuracy.Confusion["travel"]["travel"])
	assert.Equal(t, 1, m.Accuracy.Confusion["travel"]["payroll"])
	assert.Equal(t, 1, m.Accuracy.Confusion["payroll"]["miscellaneous"])
}

func TestCalibrationBins(t *testing.T) {
	samples := []Sample{
		sample("travel", 0.85, "travel", 0),  // bucket 8, correct
		sample("travel", 0.82, "payroll", 0), // bucket 8, wrong
		sample("payroll", 0.32, "payroll", 0), // bucket 3, correct
	}

	m := Compute(samples)
	require.NotNil(t, m.Accuracy)

	bin8 := m.Accuracy.Calibration[8]
	assert.Equal(t, 2, bin8.Count)
	assert.InDelta(t, 0.835, bin8.MeanConfidence, 1e-9)
	assert.InDelta(t, 0.5, bin8.Accuracy, 1e-9)

	bin3 := m.Accuracy.Calibration[3]
	assert.Equal(t, 1, bin3.Count)
	assert.InDelta(t, 1.0, bin3.Accuracy, 1e-9)

	assert.Zero(t, m.Accuracy.Calibration[0].Count)
}

func TestComputeWithoutGroundTruth(t *testing.T) {
	samples := []Sample{
		sample("travel", 0.9, "", 10*time.Millisecond),
		sample("payroll", 0.8, "", 20*time.Millisecond),
	}

	m := Compute(samples)

	assert.Nil(t, m.Accuracy, "accuracy requires at least one labelled sample")
	assert.Equal(t, 2, m.Total)
	assert.Equal(t, 2, m.ByEngine[model.EnginePass1])
}

func TestComputeCountsErrors(t *testing.T) {
	samples := []Sample{
		sample("travel", 0.9, "", 0),
		{
			Result: model.CategorizationResult{
				CategorySlug: "miscellaneous",
				Confidence:   model.Float64(0.3),
				Engine:       model.EnginePass1,
			},
			Err: "both passes failed",
		},
	}

	m := Compute(samples)

	assert.Equal(t, 1, m.Errors)
	assert.Equal(t, 2, m.Total)
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil)

	assert.Zero(t, m.Total)
	assert.Zero(t, m.Latency.P50)
	assert.Zero(t, m.Confidence.Defined)
	assert.Nil(t, m.Accuracy)
}
