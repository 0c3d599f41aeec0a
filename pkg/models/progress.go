package models

import (
	"fmt"
	"time"
)

// ProgressRecord is the best achieved result for one (user, course, level).
// Stars only ever increase; a later, worse attempt never downgrades a record.
type ProgressRecord struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"userId" db:"user_id"`
	CourseID    string        `json:"courseId" db:"course_id"`
	LevelID     int           `json:"levelId" db:"level_id"`
	Stars       int           `json:"stars" db:"stars"`
	Attempts    int           `json:"attempts" db:"attempts"`
	TimeSpent   time.Duration `json:"timeSpent" db:"time_spent"`
	CompletedAt time.Time     `json:"completedAt" db:"completed_at"`
}

// ProgressID builds the composite key for a progress record.
func ProgressID(userID, courseID string, levelID int) string {
	return fmt.Sprintf("%s-%s-%d", userID, courseID, levelID)
}

// CourseProgressCursor is the per (user, course) unlock state. CurrentLevel
// is the lowest not-yet-cleared level the user may attempt next.
type CourseProgressCursor struct {
	UserID       string      `json:"userId" db:"user_id"`
	CourseID     string      `json:"courseId" db:"course_id"`
	CurrentLevel int         `json:"currentLevel" db:"current_level"`
	LevelStars   map[int]int `json:"levelStars"`
}

// NewCourseProgressCursor returns the initial cursor for a course: level 1
// unlocked, no stars.
func NewCourseProgressCursor(userID, courseID string) *CourseProgressCursor {
	return &CourseProgressCursor{
		UserID:       userID,
		CourseID:     courseID,
		CurrentLevel: 1,
		LevelStars:   map[int]int{},
	}
}
