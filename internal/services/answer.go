package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devqa/internal/config"
	"devqa/internal/models"
	"devqa/internal/utils"

	"gorm.io/gorm"
)

type AnswerService struct {
	db   *gorm.DB
	mode config.AcceptMode
}

func NewAnswerService(db *gorm.DB, mode config.AcceptMode) *AnswerService {
	if mode == "" {
		mode = config.AcceptExclusive
	}
	return &AnswerService{db: db, mode: mode}
}

func selectQuestionStub(db *gorm.DB) *gorm.DB {
	return db.Select("id", "title", "author_id")
}

// ListForQuestion returns a question's answers, accepted ones first.
func (s *AnswerService) ListForQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	db := s.db.WithContext(ctx)
	if err := targetExists(db, QuestionTarget(questionID)); err != nil {
		return nil, err
	}

	answers := []models.Answer{}
	err := db.Where("question_id = ?", questionID).
		Scopes(acceptedFirst).
		Preload("Author", selectAuthor).
		Preload("Comments", newestFirst).
		Preload("Comments.Author", selectAuthor).
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if err := fillAnswerTotals(db, answers); err != nil {
		return nil, err
	}
	for i := range answers {
		answers[i].ContentHTML = utils.RenderMarkdown(answers[i].Content)
	}
	return answers, nil
}

func (s *AnswerService) Get(ctx context.Context, id uint) (*models.Answer, error) {
	db := s.db.WithContext(ctx)

	var answer models.Answer
	err := db.Preload("Author", selectAuthor).
		Preload("Question", selectQuestionStub).
		Preload("Comments", newestFirst).
		Preload("Comments.Author", selectAuthor).
		First(&answer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("answer")
		}
		return nil, fmt.Errorf("load answer: %w", err)
	}

	answers := []models.Answer{answer}
	if err := fillAnswerTotals(db, answers); err != nil {
		return nil, err
	}
	answer = answers[0]
	answer.ContentHTML = utils.RenderMarkdown(answer.Content)
	return &answer, nil
}

func (s *AnswerService) Create(ctx context.Context, authorID, questionID uint, content string) (*models.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("invalid answer", "content is required")
	}

	db := s.db.WithContext(ctx)
	if err := targetExists(db, QuestionTarget(questionID)); err != nil {
		return nil, err
	}

	answer := models.Answer{Content: content, AuthorID: authorID, QuestionID: questionID}
	if err := db.Create(&answer).Error; err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return s.Get(ctx, answer.ID)
}

func (s *AnswerService) Update(ctx context.Context, callerID, id uint, content string) (*models.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("invalid answer", "content is required")
	}

	db := s.db.WithContext(ctx)
	answer, err := findOwnedAnswer(db, callerID, id, "update this answer")
	if err != nil {
		return nil, err
	}
	if err := db.Model(answer).Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the caller's answer with its comments and votes.
func (s *AnswerService) Delete(ctx context.Context, callerID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedAnswer(tx, callerID, id, "delete this answer"); err != nil {
			return err
		}
		if err := tx.Where("answer_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete answer comments: %w", err)
		}
		if err := tx.Where("answer_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete answer votes: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("delete answer: %w", err)
		}
		return nil
	})
}

// Accept marks an answer accepted. Only the question's author may do it.
// In exclusive mode any previously accepted sibling loses its flag in the
// same transaction; legacy mode leaves siblings untouched.
func (s *AnswerService) Accept(ctx context.Context, callerID, id uint) (*models.Answer, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := tx.Preload("Question", selectQuestionStub).First(&answer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("answer")
			}
			return fmt.Errorf("load answer: %w", err)
		}
		if answer.Question == nil || answer.Question.AuthorID != callerID {
			return forbidden("accept this answer")
		}

		if s.mode == config.AcceptExclusive {
			err := tx.Model(&models.Answer{}).
				Where("question_id = ? AND id <> ? AND is_accepted = ?", answer.QuestionID, id, true).
				Update("is_accepted", false).Error
			if err != nil {
				return fmt.Errorf("clear accepted answers: %w", err)
			}
		}

		if err := tx.Model(&models.Answer{}).Where("id = ?", id).Update("is_accepted", true).Error; err != nil {
			return fmt.Errorf("accept answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func findOwnedAnswer(tx *gorm.DB, callerID, id uint, action string) (*models.Answer, error) {
	var answer models.Answer
	if err := tx.First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("answer")
		}
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if answer.AuthorID != callerID {
		return nil, forbidden(action)
	}
	return &answer, nil
}
