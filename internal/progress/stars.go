package progress

import "github.com/example/zlearn/internal/config"

// Time-remaining cutoffs for timed code challenges. Policy constants, not
// structural: finishing with more than half the clock left earns the top
// rating, more than a fifth the middle one.
const (
	TopRatingTimeFraction = 0.5
	MidRatingTimeFraction = 0.2
)

// StarsFromAttempts rates a successful completion by the number of prior
// failed attempts: none earns the top rating, exactly one the middle rating,
// two or more the minimum. Used for concept quizzes.
func StarsFromAttempts(rules config.StarRules, priorAttempts int) int {
	switch {
	case priorAttempts <= 0:
		return rules.FirstAttempt
	case priorAttempts == 1:
		return rules.SecondAttempt
	default:
		return rules.ThirdOrMore
	}
}

// StarsFromTimeRemaining rates a successful completion by the fraction of the
// time limit still left. Used for timed code challenges; never combine it
// with StarsFromAttempts in one computation.
func StarsFromTimeRemaining(rules config.StarRules, timeLeft, timeLimit int) int {
	if timeLimit <= 0 {
		return rules.ThirdOrMore
	}
	fraction := float64(timeLeft) / float64(timeLimit)
	switch {
	case fraction > TopRatingTimeFraction:
		return rules.FirstAttempt
	case fraction > MidRatingTimeFraction:
		return rules.SecondAttempt
	default:
		return rules.ThirdOrMore
	}
}
