package services

import (
	"context"
	"testing"

	"devqa/internal/config"
	"devqa/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitySnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	carol := testutil.CreateTestUser(t, db, "carol")
	ctx := context.Background()

	q1 := testutil.CreateTestQuestion(t, db, alice.ID, "How do I reverse a slice in Go?")
	q2 := testutil.CreateTestQuestion(t, db, alice.ID, "How do I sort a map by value in Go?")
	mine := testutil.CreateTestAnswer(t, db, alice.ID, q1.ID)
	theirs := testutil.CreateTestAnswer(t, db, bob.ID, q1.ID)

	votes := NewVoteService(db)
	cast := func(userID uint, target Target, value int) {
		_, err := votes.Cast(ctx, userID, target, value)
		require.NoError(t, err)
	}
	cast(bob.ID, QuestionTarget(q1.ID), 1)
	cast(carol.ID, QuestionTarget(q1.ID), 1)
	cast(bob.ID, QuestionTarget(q2.ID), -1)
	cast(carol.ID, AnswerTarget(mine.ID), 1)
	cast(alice.ID, AnswerTarget(theirs.ID), 1)

	_, err := NewAnswerService(db, config.AcceptExclusive).Accept(ctx, alice.ID, mine.ID)
	require.NoError(t, err)

	svc := NewActivityService(db)
	got, err := svc.Snapshot(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &Activity{
		UserID:            alice.ID,
		QuestionCount:     2,
		AnswerCount:       1,
		VotesCast:         1,
		AcceptedAnswers:   1,
		VotesReceived:     2,
		UpvotesReceived:   3,
		DownvotesReceived: 1,
		Reputation:        2,
	}, got)

	rep, err := svc.Reputation(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep)

	_, err = svc.Snapshot(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Snapshot(ctx, 999, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivityOfNewUserIsZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")

	got, err := NewActivityService(db).Snapshot(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &Activity{UserID: alice.ID}, got)
}
