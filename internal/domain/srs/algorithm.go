package srs

import (
	"time"

	"github.com/phrazzld/lexis/internal/domain"
)

// newEaseFactor applies the grade adjustment and clamps the result to the
// configured limits.
func newEaseFactor(currentEF float64, grade domain.Grade, params *Params) float64 {
	newEF := currentEF + params.EaseFactorAdjustment[grade]

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// newInterval determines the next interval in days.
//
// Again resets to 0. First reviews use FirstReviewIntervals. A Good rating
// right after a lapse grows the interval by 1.5. Otherwise Good multiplies by
// the ease factor, Hard by its modifier and Easy by its modifier times the
// ease factor.
func newInterval(
	currentInterval int,
	consecutiveCorrect int,
	easeFactor float64,
	grade domain.Grade,
	params *Params,
) int {
	if grade == domain.GradeAgain {
		return 0
	}

	if currentInterval == 0 {
		return params.FirstReviewIntervals[grade]
	}

	if consecutiveCorrect == 0 && grade == domain.GradeGood {
		return int(float64(currentInterval) * 1.5)
	}

	var modifier float64
	if grade == domain.GradeGood {
		modifier = easeFactor
	} else {
		modifier = params.IntervalModifier[grade]
		if grade == domain.GradeEasy {
			modifier *= easeFactor
		}
	}

	return int(float64(currentInterval) * modifier)
}

// nextDue converts an interval into the next due time. Failed cards come back
// after AgainReviewMinutes instead of days.
func nextDue(interval int, grade domain.Grade, now time.Time, params *Params) time.Time {
	if grade == domain.GradeAgain {
		return now.Add(time.Duration(params.AgainReviewMinutes) * time.Minute)
	}
	return now.AddDate(0, 0, interval)
}

// nextState maps a grade onto the card lifecycle. Passing grades graduate the
// card; a failure sends new and learning cards back to learning and graduated
// cards to relearning.
func nextState(current domain.LifecycleState, grade domain.Grade) domain.LifecycleState {
	if grade.Passing() {
		return domain.StateReview
	}
	switch current {
	case domain.StateReview, domain.StateRelearning:
		return domain.StateRelearning
	default:
		return domain.StateLearning
	}
}

// nextCard returns a rated copy of card.
func nextCard(card *domain.Card, grade domain.Grade, now time.Time, params *Params) *domain.Card {
	next := card.Clone()

	next.ReviewCount++
	next.LastReviewedAt = now

	if next.EaseFactor == 0 {
		next.EaseFactor = params.MaxEaseFactor
	}
	next.EaseFactor = newEaseFactor(next.EaseFactor, grade, params)

	if grade == domain.GradeAgain {
		next.ConsecutiveCorrect = 0
	} else {
		next.ConsecutiveCorrect++
	}

	next.Interval = newInterval(
		card.Interval,
		card.ConsecutiveCorrect,
		next.EaseFactor,
		grade,
		params,
	)
	next.Due = nextDue(next.Interval, grade, now, params)
	next.State = nextState(card.State, grade)
	next.UpdatedAt = now

	return next
}
