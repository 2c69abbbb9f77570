package usecase

import (
	"math"

	"github.com/greenscope/backend/internal/domain"
)

// Score weights. They must sum to 1.0 so a perfect product scores exactly 10.
const (
	weightRecyclability = 0.4
	weightImpact        = 0.4
	weightHealth        = 0.2

	maxScore = 10.0
)

// ratingBand is a half-open band [min, next band's min)
type ratingBand struct {
	min    float64
	rating domain.Rating
}

// ratingBands are evaluated highest first
var ratingBands = []ratingBand{
	{min: 9, rating: domain.Rating{Label: "Excellent", Color: "#4CAF50"}},
	{min: 7, rating: domain.Rating{Label: "Good", Color: "#8BC34A"}},
	{min: 5, rating: domain.Rating{Label: "Average", Color: "#FFC107"}},
	{min: 3, rating: domain.Rating{Label: "Poor", Color: "#FF9800"}},
}

var veryPoor = domain.Rating{Label: "Very Poor", Color: "#F44336"}

// ComputeScore returns the 0-10 sustainability score for three signals in [0,1].
// Inputs outside the range are clamped. The result is rounded to one decimal,
// halves away from zero.
func ComputeScore(recyclability, impact, health float64) float64 {
	r := clampUnit(recyclability)
	i := clampUnit(impact)
	h := clampUnit(health)

	raw := r*weightRecyclability + (1-i)*weightImpact + (1-h)*weightHealth
	return roundTenth(raw * maxScore)
}

// ComputeScoreFromInputs is ComputeScore over a ScoreInputs value
func ComputeScoreFromInputs(in domain.ScoreInputs) float64 {
	return ComputeScore(in.Recyclability, in.Impact, in.Health)
}

// RatingFor maps a score to its display tier. It is total: anything below 3,
// including NaN, is Very Poor.
func RatingFor(score float64) domain.Rating {
	for _, band := range ratingBands {
		if score >= band.min {
			return band.rating
		}
	}
	return veryPoor
}

// clampUnit clamps v to [0,1]; NaN counts as 0
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
