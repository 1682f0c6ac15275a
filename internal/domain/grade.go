package domain

// Grade is the outcome handed to the rating service after a rehearsal.
type Grade string

// Possible grade values
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// The session engine only distinguishes passing from failing.
const (
	GradePass = GradeGood
	GradeFail = GradeAgain
)

// Valid reports whether g is a known grade.
func (g Grade) Valid() bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	default:
		return false
	}
}

// Passing reports whether the grade counts as a successful recall.
func (g Grade) Passing() bool {
	return g == GradeHard || g == GradeGood || g == GradeEasy
}
