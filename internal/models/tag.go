package models

import (
	"time"
)

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:35;uniqueIndex;not null" json:"name"` // lowercase
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionTag is the join row between questions and tags.
type QuestionTag struct {
	QuestionID uint `gorm:"primaryKey"`
	TagID      uint `gorm:"primaryKey;index"`
}

// TagCount is a tag with the number of questions carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
