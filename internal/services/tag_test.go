package services

import (
	"context"
	"testing"

	"devqa/internal/models"
	"devqa/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopTagsAndInvalidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	questions, tags := newQuestionService(t, db)
	ctx := context.Background()

	top, err := tags.Top(ctx)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = questions.Create(ctx, alice.ID, validQuestion("go", "slices"))
	require.NoError(t, err)
	q, err := questions.Create(ctx, alice.ID, validQuestion("go"))
	require.NoError(t, err)

	top, err = tags.Top(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TagCount{{Name: "go", Count: 2}, {Name: "slices", Count: 1}}, top)

	// rows written around the service stay hidden until invalidation
	require.NoError(t, db.Create(&models.Tag{Name: "unused"}).Error)
	cached, err := tags.Top(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	require.NoError(t, questions.Delete(ctx, alice.ID, q.ID))
	top, err = tags.Top(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TagCount{
		{Name: "slices", Count: 1},
		{Name: "go", Count: 1},
		{Name: "unused", Count: 0},
	}, top)
}
