package services

import (
	"context"
	"errors"
	"testing"

	"devqa/internal/models"
	"devqa/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestionService(t *testing.T, db *gorm.DB) (*QuestionService, *TagService) {
	t.Helper()
	tags, err := NewTagService(db)
	require.NoError(t, err)
	return NewQuestionService(db, tags), tags
}

func validQuestion(tags ...string) CreateQuestionInput {
	return CreateQuestionInput{
		Title:   "How do I reverse a slice in Go?",
		Content: "I have a []int and want it reversed in place without allocating.",
		Domain:  "Other",
		Tags:    tags,
	}
}

func tagNames(q *models.Question) []string {
	names := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		names = append(names, t.Name)
	}
	return names
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "slices"}, NormalizeTags([]string{" Go ", "go", "", "SLICES", "  "}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestCreateQuestionDeduplicatesTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	svc, _ := newQuestionService(t, db)

	q, err := svc.Create(context.Background(), alice.ID, validQuestion("Go", " go ", "GO"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tagNames(q))
	require.NotNil(t, q.Author)
	assert.Equal(t, models.UserSummary{ID: alice.ID, Username: "alice"}, *q.Author)

	var tagCount, linkCount int64
	db.Model(&models.Tag{}).Count(&tagCount)
	db.Model(&models.QuestionTag{}).Count(&linkCount)
	assert.Equal(t, int64(1), tagCount)
	assert.Equal(t, int64(1), linkCount)
}

func TestCreateQuestionReusesExistingTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	svc, _ := newQuestionService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice.ID, validQuestion("go", "slices"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, validQuestion("Slices", "generics"))
	require.NoError(t, err)

	var tags []models.Tag
	require.NoError(t, db.Order("name").Find(&tags).Error)
	require.Len(t, tags, 3)
	assert.Equal(t, "generics", tags[0].Name)
	assert.Equal(t, "go", tags[1].Name)
	assert.Equal(t, "slices", tags[2].Name)
}

func TestCreateQuestionValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	svc, _ := newQuestionService(t, db)

	tests := []struct {
		name   string
		mutate func(*CreateQuestionInput)
	}{
		{"short title", func(in *CreateQuestionInput) { in.Title = "Too short" }},
		{"short content", func(in *CreateQuestionInput) { in.Content = "   not enough   " }},
		{"missing domain", func(in *CreateQuestionInput) { in.Domain = "" }},
		{"unknown domain", func(in *CreateQuestionInput) { in.Domain = "Cobol" }},
		{"too many tags", func(in *CreateQuestionInput) { in.Tags = []string{"a", "b", "c", "d", "e", "f"} }},
		{"long tag", func(in *CreateQuestionInput) { in.Tags = []string{"this-tag-name-is-way-too-long-to-be-stored"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validQuestion()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), alice.ID, in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Details)
		})
	}

	var count int64
	db.Model(&models.Question{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdateQuestionReplacesTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	svc, _ := newQuestionService(t, db)
	ctx := context.Background()

	q, err := svc.Create(ctx, alice.ID, validQuestion("go", "slices"))
	require.NoError(t, err)

	title := "How do I reverse a slice in place?"
	updated, err := svc.Update(ctx, alice.ID, q.ID, UpdateQuestionInput{Title: &title, Tags: []string{"Arrays"}})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, q.Content, updated.Content)
	assert.Equal(t, []string{"arrays"}, tagNames(updated))

	// omitting tags keeps them
	domain := "Database"
	updated, err = svc.Update(ctx, alice.ID, q.ID, UpdateQuestionInput{Domain: &domain})
	require.NoError(t, err)
	assert.Equal(t, "Database", updated.Domain)
	assert.Equal(t, []string{"arrays"}, tagNames(updated))

	_, err = svc.Update(ctx, bob.ID, q.ID, UpdateQuestionInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, alice.ID, q.ID+100, UpdateQuestionInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedQuestionTree(t *testing.T, db *gorm.DB, svc *QuestionService, authorID, voterID uint) *models.Question {
	t.Helper()
	ctx := context.Background()

	q, err := svc.Create(ctx, authorID, validQuestion("go"))
	require.NoError(t, err)
	a := testutil.CreateTestAnswer(t, db, voterID, q.ID)

	votes := NewVoteService(db)
	_, err = votes.Cast(ctx, voterID, QuestionTarget(q.ID), 1)
	require.NoError(t, err)
	_, err = votes.Cast(ctx, authorID, AnswerTarget(a.ID), 1)
	require.NoError(t, err)

	comments := NewCommentService(db)
	_, err = comments.Create(ctx, voterID, CommentParent{QuestionID: &q.ID}, "nice question")
	require.NoError(t, err)
	_, err = comments.Create(ctx, authorID, CommentParent{AnswerID: &a.ID}, "thanks")
	require.NoError(t, err)
	return q
}

func countRows(t *testing.T, db *gorm.DB) map[string]int64 {
	t.Helper()
	counts := map[string]int64{}
	for name, model := range map[string]interface{}{
		"questions":     &models.Question{},
		"answers":       &models.Answer{},
		"comments":      &models.Comment{},
		"votes":         &models.Vote{},
		"question_tags": &models.QuestionTag{},
		"tags":          &models.Tag{},
	} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		counts[name] = n
	}
	return counts
}

func TestDeleteQuestionCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	svc, _ := newQuestionService(t, db)
	q := seedQuestionTree(t, db, svc, alice.ID, bob.ID)

	assert.ErrorIs(t, svc.Delete(context.Background(), bob.ID, q.ID), ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), alice.ID, q.ID))

	assert.Equal(t, map[string]int64{
		"questions":     0,
		"answers":       0,
		"comments":      0,
		"votes":         0,
		"question_tags": 0,
		"tags":          1,
	}, countRows(t, db))

	_, err := svc.Get(context.Background(), q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQuestionRollsBackOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	svc, _ := newQuestionService(t, db)
	q := seedQuestionTree(t, db, svc, alice.ID, bob.ID)
	before := countRows(t, db)

	err := db.Callback().Delete().Before("gorm:delete").Register("test:fail_answers", func(tx *gorm.DB) {
		if tx.Statement.Table == "answers" {
			tx.AddError(errors.New("injected delete failure"))
		}
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), alice.ID, q.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected delete failure")

	assert.Equal(t, before, countRows(t, db))
}

func TestListQuestions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	svc, _ := newQuestionService(t, db)
	ctx := context.Background()

	older, err := svc.Create(ctx, alice.ID, validQuestion("go"))
	require.NoError(t, err)
	in := validQuestion("python")
	in.Title = "Why does my Python loop never end?"
	in.Domain = "Python"
	newer, err := svc.Create(ctx, alice.ID, in)
	require.NoError(t, err)

	_, err = NewVoteService(db).Cast(ctx, bob.ID, QuestionTarget(older.ID), 1)
	require.NoError(t, err)
	testutil.CreateTestAnswer(t, db, bob.ID, older.ID)

	ids := func(p *QuestionPage) []uint {
		out := []uint{}
		for _, q := range p.Questions {
			out = append(out, q.ID)
		}
		return out
	}

	page, err := svc.List(ctx, ListQuestionsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID, older.ID}, ids(page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 30, page.PerPage)
	assert.Equal(t, 1, page.Questions[1].TotalVotes)
	assert.Equal(t, 1, page.Questions[1].AnswerCount)
	assert.Equal(t, []string{"go"}, tagNames(&page.Questions[1]))

	page, err = svc.List(ctx, ListQuestionsFilter{Sort: SortVotes})
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID, newer.ID}, ids(page))

	page, err = svc.List(ctx, ListQuestionsFilter{Sort: SortUnanswered})
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID}, ids(page))

	page, err = svc.List(ctx, ListQuestionsFilter{Query: "PYTHON LOOP"})
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID}, ids(page))

	page, err = svc.List(ctx, ListQuestionsFilter{Tag: " Go "})
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID}, ids(page))

	page, err = svc.List(ctx, ListQuestionsFilter{Domain: "Python"})
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID}, ids(page))

	page, err = svc.List(ctx, ListQuestionsFilter{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID}, ids(page))
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.List(ctx, ListQuestionsFilter{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PerPage)

	_, err = svc.List(ctx, ListQuestionsFilter{Sort: "random"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGetQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	svc, _ := newQuestionService(t, db)
	q := seedQuestionTree(t, db, svc, alice.ID, bob.ID)

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalVotes)
	assert.Equal(t, 1, got.AnswerCount)
	assert.Contains(t, got.ContentHTML, "<p>")
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].Author.Username)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, 1, got.Answers[0].TotalVotes)
	assert.Equal(t, "bob", got.Answers[0].Author.Username)
	require.Len(t, got.Answers[0].Comments, 1)
	assert.Equal(t, "alice", got.Answers[0].Comments[0].Author.Username)
}
