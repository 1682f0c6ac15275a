package srs

import (
	"github.com/phrazzld/lexis/internal/domain"
)

// Params defines all configurable parameters for the rating algorithm
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Adjustments per grade
	EaseFactorAdjustment map[domain.Grade]float64
	IntervalModifier     map[domain.Grade]float64

	// First review intervals in days, keyed by grade
	FirstReviewIntervals map[domain.Grade]int

	// AgainReviewMinutes is how soon a failed card is due again
	AgainReviewMinutes int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 2.5,

		EaseFactorAdjustment: map[domain.Grade]float64{
			domain.GradeAgain: -0.20,
			domain.GradeHard:  -0.15,
			domain.GradeGood:  0.0,
			domain.GradeEasy:  0.15,
		},

		IntervalModifier: map[domain.Grade]float64{
			domain.GradeAgain: 0.0, // Reset interval
			domain.GradeHard:  1.2,
			domain.GradeGood:  1.0, // Use ease factor directly
			domain.GradeEasy:  1.3,
		},

		FirstReviewIntervals: map[domain.Grade]int{
			domain.GradeHard: 1,
			domain.GradeGood: 1,
			domain.GradeEasy: 2,
		},

		AgainReviewMinutes: 10,
	}
}

// ParamsFromMinutes returns default params with a custom relearn delay.
// Non-positive values keep the default.
func ParamsFromMinutes(againMinutes int) *Params {
	p := NewDefaultParams()
	if againMinutes > 0 {
		p.AgainReviewMinutes = againMinutes
	}
	return p
}
