package models

import (
	"time"
)

type Answer struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	AuthorID   uint         `gorm:"not null;index" json:"authorId"`
	Author     *UserSummary `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	QuestionID uint         `gorm:"not null;index" json:"questionId"`
	Question   *Question    `json:"question,omitempty"`
	IsAccepted bool         `gorm:"default:false;not null" json:"isAccepted"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	Comments []Comment `json:"comments,omitempty"`

	TotalVotes  int    `gorm:"-" json:"totalVotes"`
	ContentHTML string `gorm:"-" json:"contentHtml,omitempty"`
}
