package models

import (
	"time"
)

// Comment hangs off exactly one of a question or an answer.
type Comment struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	AuthorID   uint         `gorm:"not null;index" json:"authorId"`
	Author     *UserSummary `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	QuestionID *uint        `gorm:"index" json:"questionId"`
	AnswerID   *uint        `gorm:"index" json:"answerId"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}
