package models

import "time"

// LearningSession is one contiguous span of user activity. A session with no
// end time is open; analytics treats open sessions as censored, never as
// zero-duration.
type LearningSession struct {
	ID              string        `json:"id" db:"id"`
	UserID          string        `json:"userId" db:"user_id"`
	StartTime       time.Time     `json:"startTime" db:"start_time"`
	EndTime         *time.Time    `json:"endTime,omitempty" db:"end_time"`
	Duration        time.Duration `json:"duration" db:"duration"`
	LevelsCompleted int           `json:"levelsCompleted" db:"levels_completed"`
	CorrectAnswers  int           `json:"correctAnswers" db:"correct_answers"`
	WrongAnswers    int           `json:"wrongAnswers" db:"wrong_answers"`
}

// Ended reports whether the session has been closed.
func (s *LearningSession) Ended() bool {
	return s.EndTime != nil
}
