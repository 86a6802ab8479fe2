package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"devqa/internal/models"
	"devqa/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTagsPerQuestion = 5
	maxTagLength       = 35

	topTagsLimit    = 50
	topTagsCacheKey = "tags:top"
	topTagsTTL      = time.Minute
)

// NormalizeTags trims and lowercases names, drops empties and collapses
// duplicates while keeping first-seen order.
func NormalizeTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func validateTags(tags []string) []string {
	var details []string
	if len(tags) > maxTagsPerQuestion {
		details = append(details, fmt.Sprintf("at most %d tags allowed", maxTagsPerQuestion))
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > maxTagLength {
			details = append(details, fmt.Sprintf("tag %q is longer than %d characters", t, maxTagLength))
		}
	}
	return details
}

// upsertTag returns the tag called name, creating it if needed. A
// concurrent creator of the same name is tolerated by the unique index.
func upsertTag(tx *gorm.DB, name string) (models.Tag, error) {
	tag := models.Tag{Name: name}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if res.Error != nil {
		return tag, fmt.Errorf("upsert tag %q: %w", name, res.Error)
	}
	if res.RowsAffected == 1 {
		return tag, nil
	}

	tag = models.Tag{}
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		return tag, fmt.Errorf("load tag %q: %w", name, err)
	}
	return tag, nil
}

// linkTags attaches already normalized tag names to a question.
func linkTags(tx *gorm.DB, questionID uint, names []string) error {
	for _, name := range names {
		tag, err := upsertTag(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Create(&models.QuestionTag{QuestionID: questionID, TagID: tag.ID}).Error; err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

type TagService struct {
	db    *gorm.DB
	cache *utils.Cache[[]models.TagCount]
}

func NewTagService(db *gorm.DB) (*TagService, error) {
	cache, err := utils.NewCache[[]models.TagCount](16)
	if err != nil {
		return nil, err
	}
	return &TagService{db: db, cache: cache}, nil
}

// Top returns the most used tags, most questions first, newer tags
// winning ties.
func (s *TagService) Top(ctx context.Context) ([]models.TagCount, error) {
	if cached, ok := s.cache.Get(topTagsCacheKey); ok {
		return cached, nil
	}

	tags := []models.TagCount{}
	err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Select("tags.name AS name, COUNT(question_tags.question_id) AS count").
		Joins("LEFT JOIN question_tags ON question_tags.tag_id = tags.id").
		Group("tags.id, tags.name, tags.created_at").
		Order("count DESC, tags.created_at DESC, tags.id DESC").
		Limit(topTagsLimit).
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list top tags: %w", err)
	}

	s.cache.Set(topTagsCacheKey, tags, topTagsTTL)
	return tags, nil
}

// Invalidate drops the cached tag list after question writes.
func (s *TagService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Delete(topTagsCacheKey)
}
