package models

import (
	"time"
)

type Question struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Title     string       `gorm:"not null" json:"title"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	Domain    string       `gorm:"size:30;not null;index" json:"domain"`
	AuthorID  uint         `gorm:"not null;index" json:"authorId"`
	Author    *UserSummary `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`

	Tags     []Tag     `gorm:"many2many:question_tags;" json:"tags"`
	Answers  []Answer  `json:"answers,omitempty"`
	Comments []Comment `json:"comments,omitempty"`

	// 非数据库字段，用于查询时填充
	AnswerCount int    `gorm:"-" json:"answerCount"`
	TotalVotes  int    `gorm:"-" json:"totalVotes"`
	ContentHTML string `gorm:"-" json:"contentHtml,omitempty"`
}
