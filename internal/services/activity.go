package services

import (
	"context"
	"fmt"

	"devqa/internal/models"

	"gorm.io/gorm"
)

// Activity is derived from the user's rows on every request; nothing
// here is stored.
type Activity struct {
	UserID            uint  `json:"userId"`
	QuestionCount     int64 `json:"questionCount"`
	AnswerCount       int64 `json:"answerCount"`
	VotesCast         int64 `json:"votesCast"`
	AcceptedAnswers   int64 `json:"acceptedAnswers"`
	VotesReceived     int64 `json:"votesReceived"`
	UpvotesReceived   int64 `json:"upvotesReceived"`
	DownvotesReceived int64 `json:"downvotesReceived"`
	Reputation        int64 `json:"reputation"`
}

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Snapshot returns the activity counters of userID. Users may only look
// at their own activity.
func (s *ActivityService) Snapshot(ctx context.Context, callerID, userID uint) (*Activity, error) {
	if callerID != userID {
		return nil, forbidden("view this activity")
	}

	db := s.db.WithContext(ctx)
	var exists int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if exists == 0 {
		return nil, notFound("user")
	}

	activity := &Activity{UserID: userID}
	counts := []struct {
		what  string
		model interface{}
		where string
		dst   *int64
	}{
		{"questions", &models.Question{}, "author_id = ?", &activity.QuestionCount},
		{"answers", &models.Answer{}, "author_id = ?", &activity.AnswerCount},
		{"votes cast", &models.Vote{}, "user_id = ?", &activity.VotesCast},
		{"accepted answers", &models.Answer{}, "author_id = ? AND is_accepted = true", &activity.AcceptedAnswers},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, userID).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", c.what, err)
		}
	}

	received, err := votesReceived(db, userID)
	if err != nil {
		return nil, err
	}
	activity.VotesReceived = received.Total
	activity.UpvotesReceived = received.Up
	activity.DownvotesReceived = received.Down
	activity.Reputation = received.Total
	return activity, nil
}

// Reputation is the sum of vote values on everything userID has posted.
func (s *ActivityService) Reputation(ctx context.Context, userID uint) (int64, error) {
	received, err := votesReceived(s.db.WithContext(ctx), userID)
	if err != nil {
		return 0, err
	}
	return received.Total, nil
}

type receivedVotes struct {
	Total int64
	Up    int64
	Down  int64
}

func votesReceived(db *gorm.DB, userID uint) (receivedVotes, error) {
	var r receivedVotes
	err := db.Raw(`
		SELECT
			COALESCE(SUM(value), 0) AS total,
			COALESCE(SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END), 0) AS up,
			COALESCE(SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END), 0) AS down
		FROM votes
		WHERE question_id IN (SELECT id FROM questions WHERE author_id = ?)
		   OR answer_id IN (SELECT id FROM answers WHERE author_id = ?)
	`, userID, userID).Scan(&r).Error
	if err != nil {
		return r, fmt.Errorf("sum votes received: %w", err)
	}
	return r, nil
}
