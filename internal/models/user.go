package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Avatar    *string   `json:"avatar"`            // relative path under /uploads or an object URL
	Bio       *string   `gorm:"size:500" json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Questions []Question `gorm:"foreignKey:AuthorID" json:"questions,omitempty"`
	Answers   []Answer   `gorm:"foreignKey:AuthorID" json:"answers,omitempty"`
}

// UserSummary is the author shape embedded in questions, answers and comments.
// It reads the users table; only these columns are ever loaded into it.
type UserSummary struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (UserSummary) TableName() string {
	return "users"
}
