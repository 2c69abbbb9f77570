package usecase

import (
	"math"
	"testing"

	"github.com/greenscope/backend/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, weightRecyclability+weightImpact+weightHealth, 1e-12)
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name                  string
		recyclability, impact float64
		health                float64
		want                  float64
	}{
		{name: "best possible", recyclability: 1, impact: 0, health: 0, want: 10.0},
		{name: "worst possible", recyclability: 0, impact: 1, health: 1, want: 0.0},
		{name: "all neutral", recyclability: 0.5, impact: 0.5, health: 0.5, want: 5.0},
		{name: "recyclability only", recyclability: 1, impact: 1, health: 1, want: 4.0},
		{name: "health only", recyclability: 0, impact: 1, health: 0, want: 2.0},
		{name: "rounds to one decimal", recyclability: 0.33, impact: 0.2, health: 0.1, want: 6.3},
		{name: "half rounds away from zero", recyclability: 0.0625, impact: 1, health: 1, want: 0.3},
		{name: "clamps above one", recyclability: 3, impact: -2, health: -1, want: 10.0},
		{name: "clamps below zero", recyclability: -5, impact: 7, health: 1.5, want: 0.0},
		{name: "NaN treated as zero", recyclability: math.NaN(), impact: math.NaN(), health: math.NaN(), want: 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.recyclability, tt.impact, tt.health)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputeScoreFromInputs(t *testing.T) {
	got := ComputeScoreFromInputs(domain.ScoreInputs{Recyclability: 1, Impact: 0, Health: 0})
	assert.Equal(t, 10.0, got)
}

func TestComputeScore_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	unbounded := gen.Float64Range(-5, 5)

	properties.Property("score is within [0, 10]", prop.ForAll(
		func(r, i, h float64) bool {
			s := ComputeScore(r, i, h)
			return s >= 0 && s <= 10
		},
		unbounded, unbounded, unbounded,
	))

	properties.Property("score has at most one fractional digit", prop.ForAll(
		func(r, i, h float64) bool {
			s := ComputeScore(r, i, h)
			return math.Abs(s*10-math.Round(s*10)) < 1e-9
		},
		unbounded, unbounded, unbounded,
	))

	properties.Property("clamping makes out-of-range inputs equal to the bounds", prop.ForAll(
		func(r, i, h float64) bool {
			return ComputeScore(r, i, h) == ComputeScore(clampUnit(r), clampUnit(i), clampUnit(h))
		},
		unbounded, unbounded, unbounded,
	))

	properties.Property("score never decreases as recyclability improves", prop.ForAll(
		func(r, i, h, delta float64) bool {
			return ComputeScore(r+delta, i, h) >= ComputeScore(r, i, h)
		},
		gen.Float64Range(0, 1), gen.Float64Range(0, 1), gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRatingFor(t *testing.T) {
	tests := []struct {
		score float64
		label string
		color string
	}{
		{score: 10.0, label: "Excellent", color: "#4CAF50"},
		{score: 9.0, label: "Excellent", color: "#4CAF50"},
		{score: 8.999, label: "Good", color: "#8BC34A"},
		{score: 7.0, label: "Good", color: "#8BC34A"},
		{score: 6.9999, label: "Average", color: "#FFC107"},
		{score: 5.0, label: "Average", color: "#FFC107"},
		{score: 4.9, label: "Poor", color: "#FF9800"},
		{score: 3.0, label: "Poor", color: "#FF9800"},
		{score: 2.9, label: "Very Poor", color: "#F44336"},
		{score: 0.0, label: "Very Poor", color: "#F44336"},
		{score: -1.0, label: "Very Poor", color: "#F44336"},
		{score: 42.0, label: "Excellent", color: "#4CAF50"},
		{score: math.NaN(), label: "Very Poor", color: "#F44336"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := RatingFor(tt.score)
			assert.Equal(t, tt.label, got.Label, "score %v", tt.score)
			assert.Equal(t, tt.color, got.Color, "score %v", tt.score)
		})
	}
}

func TestRatingFor_Total(t *testing.T) {
	labels := map[string]bool{"Excellent": true, "Good": true, "Average": true, "Poor": true, "Very Poor": true}

	properties := gopter.NewProperties(nil)
	properties.Property("every score maps to one of the five tiers", prop.ForAll(
		func(score float64) bool {
			return labels[RatingFor(score).Label]
		},
		gen.Float64Range(-100, 100),
	))
	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
