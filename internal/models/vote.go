package models

import (
	"time"
)

// Vote is one user's signed vote on a question or an answer. Exactly one of
// QuestionID and AnswerID is set. NULLs never collide in a unique index, so
// each index only constrains its own target kind.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_question;uniqueIndex:idx_vote_user_answer" json:"userId"`
	QuestionID *uint     `gorm:"index;uniqueIndex:idx_vote_user_question" json:"questionId"`
	AnswerID   *uint     `gorm:"index;uniqueIndex:idx_vote_user_answer" json:"answerId"`
	Value      int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
