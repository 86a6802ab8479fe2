package services

import (
	"context"
	"errors"
	"fmt"

	"devqa/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TargetKind names what a vote (or comment) is attached to.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// Target identifies a question or an answer.
type Target struct {
	Kind TargetKind
	ID   uint
}

func QuestionTarget(id uint) Target { return Target{Kind: TargetQuestion, ID: id} }
func AnswerTarget(id uint) Target   { return Target{Kind: TargetAnswer, ID: id} }

func (t Target) column() string {
	if t.Kind == TargetAnswer {
		return "answer_id"
	}
	return "question_id"
}

func (t Target) attach(v *models.Vote) {
	id := t.ID
	if t.Kind == TargetAnswer {
		v.AnswerID = &id
	} else {
		v.QuestionID = &id
	}
}

// VoteState is what the client needs to render vote buttons.
type VoteState struct {
	UserVote   int `json:"userVote"`
	TotalVotes int `json:"totalVotes"`
}

// maxCastAttempts bounds retries when a concurrent request from the same
// user changes the vote row between our read and our guarded write.
const maxCastAttempts = 3

var errVoteChanged = errors.New("vote changed concurrently")

type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// Cast applies value for userID on target and returns the new total.
//
// No vote yet: one is created. Same value again: the vote is retracted.
// Opposite value: the vote is switched. The insert relies on the
// (user, target) unique index and the later writes are guarded by the
// value we read, so concurrent casts by one user never leave two rows.
func (s *VoteService) Cast(ctx context.Context, userID uint, target Target, value int) (int, error) {
	if value != 1 && value != -1 {
		return 0, invalid("vote value must be 1 or -1")
	}
	if err := targetExists(s.db.WithContext(ctx), target); err != nil {
		return 0, err
	}

	var err error
	for attempt := 0; attempt < maxCastAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return applyVote(tx, userID, target, value)
		})
		if !errors.Is(err, errVoteChanged) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("cast %s vote: %w", target.Kind, err)
	}

	return s.Total(ctx, target)
}

func applyVote(tx *gorm.DB, userID uint, target Target, value int) error {
	vote := models.Vote{UserID: userID, Value: value}
	target.attach(&vote)

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var existing models.Vote
	err := tx.Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errVoteChanged
	}
	if err != nil {
		return err
	}

	if existing.Value == value {
		res = tx.Where("id = ? AND value = ?", existing.ID, existing.Value).Delete(&models.Vote{})
	} else {
		res = tx.Model(&models.Vote{}).
			Where("id = ? AND value = ?", existing.ID, existing.Value).
			Update("value", value)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVoteChanged
	}
	return nil
}

// State returns the caller's own vote (0 if none) and the target total.
func (s *VoteService) State(ctx context.Context, userID uint, target Target) (VoteState, error) {
	var state VoteState

	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).
		First(&vote).Error
	switch {
	case err == nil:
		state.UserVote = vote.Value
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return state, fmt.Errorf("load %s vote: %w", target.Kind, err)
	}

	total, err := s.Total(ctx, target)
	if err != nil {
		return state, err
	}
	state.TotalVotes = total
	return state, nil
}

// Total is the sum of all vote values on target.
func (s *VoteService) Total(ctx context.Context, target Target) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where(target.column()+" = ?", target.ID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum %s votes: %w", target.Kind, err)
	}
	return int(total), nil
}

// voteTotals sums votes for many targets of one kind in a single query.
func voteTotals(tx *gorm.DB, kind TargetKind, ids []uint) (map[uint]int, error) {
	totals := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return totals, nil
	}

	column := Target{Kind: kind}.column()
	type row struct {
		TargetID uint
		Total    int
	}
	var rows []row
	err := tx.Model(&models.Vote{}).
		Select(column+" AS target_id, COALESCE(SUM(value), 0) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		totals[r.TargetID] = r.Total
	}
	return totals, nil
}

func targetExists(tx *gorm.DB, target Target) error {
	var count int64
	var err error
	switch target.Kind {
	case TargetQuestion:
		err = tx.Model(&models.Question{}).Where("id = ?", target.ID).Count(&count).Error
	case TargetAnswer:
		err = tx.Model(&models.Answer{}).Where("id = ?", target.ID).Count(&count).Error
	default:
		return invalid("unknown vote target " + string(target.Kind))
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound(string(target.Kind))
	}
	return nil
}
