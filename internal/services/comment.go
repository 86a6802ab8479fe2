package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devqa/internal/models"

	"gorm.io/gorm"
)

// CommentParent selects the question or answer a comment belongs to.
// Exactly one field must be set.
type CommentParent struct {
	QuestionID *uint
	AnswerID   *uint
}

func (p CommentParent) target() (Target, error) {
	switch {
	case p.QuestionID != nil && p.AnswerID != nil:
		return Target{}, invalid("invalid comment parent", "give either questionId or answerId, not both")
	case p.QuestionID != nil:
		return QuestionTarget(*p.QuestionID), nil
	case p.AnswerID != nil:
		return AnswerTarget(*p.AnswerID), nil
	default:
		return Target{}, invalid("invalid comment parent", "questionId or answerId is required")
	}
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// List returns the comments on one question or answer, newest first.
func (s *CommentService) List(ctx context.Context, parent CommentParent) ([]models.Comment, error) {
	target, err := parent.target()
	if err != nil {
		return nil, err
	}

	comments := []models.Comment{}
	err = s.db.WithContext(ctx).
		Where(target.column()+" = ?", target.ID).
		Scopes(newestFirst).
		Preload("Author", selectAuthor).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, authorID uint, parent CommentParent, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("invalid comment", "content is required")
	}
	target, err := parent.target()
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := targetExists(db, target); err != nil {
		return nil, err
	}

	comment := models.Comment{Content: content, AuthorID: authorID}
	id := target.ID
	if target.Kind == TargetAnswer {
		comment.AnswerID = &id
	} else {
		comment.QuestionID = &id
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.load(ctx, comment.ID)
}

func (s *CommentService) Update(ctx context.Context, callerID, id uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("invalid comment", "content is required")
	}

	db := s.db.WithContext(ctx)
	comment, err := findOwnedComment(db, callerID, id, "update this comment")
	if err != nil {
		return nil, err
	}
	if err := db.Model(comment).Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.load(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, callerID, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := findOwnedComment(db, callerID, id, "delete this comment"); err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("Author", selectAuthor).First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("comment")
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return &comment, nil
}

func findOwnedComment(db *gorm.DB, callerID, id uint, action string) (*models.Comment, error) {
	var comment models.Comment
	if err := db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("comment")
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if comment.AuthorID != callerID {
		return nil, forbidden(action)
	}
	return &comment, nil
}
