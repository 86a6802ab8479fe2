package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"devqa/internal/models"
	"devqa/internal/utils"

	"gorm.io/gorm"
)

const (
	minTitleLength   = 15
	minContentLength = 30

	defaultPerPage = 30
	maxPerPage     = 100
)

// Question list orderings.
const (
	SortNewest     = "newest"
	SortVotes      = "votes"
	SortUnanswered = "unanswered"
)

type CreateQuestionInput struct {
	Title   string
	Content string
	Domain  string
	Tags    []string
}

// UpdateQuestionInput changes only the non-nil fields. A non-nil Tags
// replaces the whole tag set.
type UpdateQuestionInput struct {
	Title   *string
	Content *string
	Domain  *string
	Tags    []string
}

type ListQuestionsFilter struct {
	Query   string
	Tag     string
	Domain  string
	Sort    string
	Page    int
	PerPage int
}

type QuestionPage struct {
	Questions []models.Question `json:"questions"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PerPage   int               `json:"perPage"`
}

type QuestionService struct {
	db   *gorm.DB
	tags *TagService
}

func NewQuestionService(db *gorm.DB, tags *TagService) *QuestionService {
	return &QuestionService{db: db, tags: tags}
}

// selectAuthor keeps embedded authors down to their public fields.
func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "avatar")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC, id DESC")
}

func acceptedFirst(db *gorm.DB) *gorm.DB {
	return db.Order("is_accepted DESC, created_at DESC, id DESC")
}

func validateQuestion(title, content, domain *string) []string {
	var details []string
	if title != nil && utf8.RuneCountInString(strings.TrimSpace(*title)) < minTitleLength {
		details = append(details, fmt.Sprintf("title must be at least %d characters", minTitleLength))
	}
	if content != nil && utf8.RuneCountInString(strings.TrimSpace(*content)) < minContentLength {
		details = append(details, fmt.Sprintf("content must be at least %d characters", minContentLength))
	}
	if domain != nil {
		switch {
		case strings.TrimSpace(*domain) == "":
			details = append(details, "domain is required")
		case !models.IsDomain(strings.TrimSpace(*domain)):
			details = append(details, fmt.Sprintf("unknown domain %q", *domain))
		}
	}
	return details
}

// Create stores a question with its tags in one transaction.
func (s *QuestionService) Create(ctx context.Context, authorID uint, in CreateQuestionInput) (*models.Question, error) {
	tags := NormalizeTags(in.Tags)
	details := validateQuestion(&in.Title, &in.Content, &in.Domain)
	details = append(details, validateTags(tags)...)
	if len(details) > 0 {
		return nil, invalid("invalid question", details...)
	}

	question := models.Question{
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		Domain:   strings.TrimSpace(in.Domain),
		AuthorID: authorID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		return linkTags(tx, question.ID, tags)
	})
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.tags.Invalidate()

	return s.loadSummary(ctx, question.ID)
}

// Update applies in to the caller's own question.
func (s *QuestionService) Update(ctx context.Context, callerID, id uint, in UpdateQuestionInput) (*models.Question, error) {
	var tags []string
	if in.Tags != nil {
		tags = NormalizeTags(in.Tags)
	}
	details := validateQuestion(in.Title, in.Content, in.Domain)
	details = append(details, validateTags(tags)...)
	if len(details) > 0 {
		return nil, invalid("invalid question", details...)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := findOwnedQuestion(tx, callerID, id, "update this question")
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = strings.TrimSpace(*in.Title)
		}
		if in.Content != nil {
			updates["content"] = strings.TrimSpace(*in.Content)
		}
		if in.Domain != nil {
			updates["domain"] = strings.TrimSpace(*in.Domain)
		}
		if len(updates) > 0 {
			if err := tx.Model(question).Updates(updates).Error; err != nil {
				return fmt.Errorf("update question: %w", err)
			}
		}

		if in.Tags != nil {
			if err := tx.Where("question_id = ?", id).Delete(&models.QuestionTag{}).Error; err != nil {
				return fmt.Errorf("clear question tags: %w", err)
			}
			return linkTags(tx, id, tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.tags.Invalidate()

	return s.loadSummary(ctx, id)
}

// Delete removes the caller's question and everything hanging off it.
func (s *QuestionService) Delete(ctx context.Context, callerID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedQuestion(tx, callerID, id, "delete this question"); err != nil {
			return err
		}
		return deleteQuestionTree(tx, id)
	})
	if err != nil {
		return err
	}
	s.tags.Invalidate()
	return nil
}

func findOwnedQuestion(tx *gorm.DB, callerID, id uint, action string) (*models.Question, error) {
	var question models.Question
	if err := tx.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("question")
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question.AuthorID != callerID {
		return nil, forbidden(action)
	}
	return &question, nil
}

// deleteQuestionTree removes children before parents so it also works
// with foreign keys enforced. Run it inside a transaction.
func deleteQuestionTree(tx *gorm.DB, id uint) error {
	var answerIDs []uint
	if err := tx.Model(&models.Answer{}).Where("question_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
		return fmt.Errorf("list answers: %w", err)
	}

	steps := []struct {
		what string
		run  func() *gorm.DB
		skip bool
	}{
		{"tag links", func() *gorm.DB { return tx.Where("question_id = ?", id).Delete(&models.QuestionTag{}) }, false},
		{"question comments", func() *gorm.DB { return tx.Where("question_id = ?", id).Delete(&models.Comment{}) }, false},
		{"question votes", func() *gorm.DB { return tx.Where("question_id = ?", id).Delete(&models.Vote{}) }, false},
		{"answer comments", func() *gorm.DB { return tx.Where("answer_id IN ?", answerIDs).Delete(&models.Comment{}) }, len(answerIDs) == 0},
		{"answer votes", func() *gorm.DB { return tx.Where("answer_id IN ?", answerIDs).Delete(&models.Vote{}) }, len(answerIDs) == 0},
		{"answers", func() *gorm.DB { return tx.Where("question_id = ?", id).Delete(&models.Answer{}) }, false},
		{"question", func() *gorm.DB { return tx.Where("id = ?", id).Delete(&models.Question{}) }, false},
	}
	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := step.run().Error; err != nil {
			return fmt.Errorf("delete %s: %w", step.what, err)
		}
	}
	return nil
}

func (f ListQuestionsFilter) apply(db *gorm.DB) *gorm.DB {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		db = db.Where("(LOWER(questions.title) LIKE ? OR LOWER(questions.content) LIKE ?)", like, like)
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		db = db.Where("questions.id IN (SELECT question_tags.question_id FROM question_tags JOIN tags ON tags.id = question_tags.tag_id WHERE tags.name = ?)", tag)
	}
	if domain := strings.TrimSpace(f.Domain); domain != "" {
		db = db.Where("questions.domain = ?", domain)
	}
	if f.Sort == SortUnanswered {
		db = db.Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.question_id = questions.id)")
	}
	return db
}

// List returns one page of questions matching filter.
func (s *QuestionService) List(ctx context.Context, filter ListQuestionsFilter) (*QuestionPage, error) {
	switch filter.Sort {
	case "":
		filter.Sort = SortNewest
	case SortNewest, SortVotes, SortUnanswered:
	default:
		return nil, invalid("invalid sort", "sort must be newest, votes or unanswered")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}

	page := &QuestionPage{Questions: []models.Question{}, Page: filter.Page, PerPage: filter.PerPage}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Question{}).Scopes(filter.apply).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	query := db.Model(&models.Question{}).Scopes(filter.apply).
		Preload("Author", selectAuthor).
		Preload("Tags")
	if filter.Sort == SortVotes {
		query = query.Order("(SELECT COALESCE(SUM(votes.value), 0) FROM votes WHERE votes.question_id = questions.id) DESC")
	}
	err := query.Order("questions.created_at DESC, questions.id DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&page.Questions).Error
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if err := fillQuestionCounts(db, page.Questions); err != nil {
		return nil, err
	}
	return page, nil
}

// Get returns the full question page: tags, comments, answers and totals.
func (s *QuestionService) Get(ctx context.Context, id uint) (*models.Question, error) {
	db := s.db.WithContext(ctx)

	var question models.Question
	err := db.Preload("Author", selectAuthor).
		Preload("Tags").
		Preload("Comments", newestFirst).
		Preload("Comments.Author", selectAuthor).
		Preload("Answers", acceptedFirst).
		Preload("Answers.Author", selectAuthor).
		Preload("Answers.Comments", newestFirst).
		Preload("Answers.Comments.Author", selectAuthor).
		First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("question")
		}
		return nil, fmt.Errorf("load question: %w", err)
	}

	questions := []models.Question{question}
	if err := fillQuestionCounts(db, questions); err != nil {
		return nil, err
	}
	question = questions[0]
	question.ContentHTML = utils.RenderMarkdown(question.Content)

	if err := fillAnswerTotals(db, question.Answers); err != nil {
		return nil, err
	}
	for i := range question.Answers {
		question.Answers[i].ContentHTML = utils.RenderMarkdown(question.Answers[i].Content)
	}
	return &question, nil
}

func (s *QuestionService) loadSummary(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Preload("Tags").
		First(&question, id).Error
	if err != nil {
		return nil, fmt.Errorf("reload question: %w", err)
	}
	return &question, nil
}

// fillQuestionCounts sets AnswerCount and TotalVotes in place.
func fillQuestionCounts(db *gorm.DB, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	totals, err := voteTotals(db, TargetQuestion, ids)
	if err != nil {
		return fmt.Errorf("sum question votes: %w", err)
	}

	type row struct {
		QuestionID uint
		Count      int
	}
	var rows []row
	err = db.Model(&models.Answer{}).
		Select("question_id, COUNT(*) AS count").
		Where("question_id IN ?", ids).
		Group("question_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("count answers: %w", err)
	}
	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.QuestionID] = r.Count
	}

	for i := range questions {
		questions[i].TotalVotes = totals[questions[i].ID]
		questions[i].AnswerCount = counts[questions[i].ID]
	}
	return nil
}

func fillAnswerTotals(db *gorm.DB, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	ids := make([]uint, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	totals, err := voteTotals(db, TargetAnswer, ids)
	if err != nil {
		return fmt.Errorf("sum answer votes: %w", err)
	}
	for i := range answers {
		answers[i].TotalVotes = totals[answers[i].ID]
	}
	return nil
}
