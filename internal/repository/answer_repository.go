package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/hackathon-range/shop-backend/internal/model"
)

// AnswerRepo stores answer submissions (append-only audit) and the
// per-participant score aggregate derived from them.
type AnswerRepo struct{ db *sql.DB }

// NewAnswerRepo returns a new AnswerRepo bound to the given database.
func NewAnswerRepo(db *sql.DB) *AnswerRepo { return &AnswerRepo{db: db} }

// upsertAggregate replaces the aggregate only when the incoming submission
// is newer than the stored one.  submission_id must be assigned last:
// MySQL evaluates assignments left to right, and the IF() guards have to
// compare against the old value.
const upsertAggregate = `INSERT INTO score_aggregates
	(user_id, submission_id, ctf_flag_points, pii_points, unreleased_product_points, total_points)
	VALUES (?,?,?,?,?,?)
	ON DUPLICATE KEY UPDATE
		ctf_flag_points = IF(VALUES(submission_id) > submission_id, VALUES(ctf_flag_points), ctf_flag_points),
		pii_points = IF(VALUES(submission_id) > submission_id, VALUES(pii_points), pii_points),
		unreleased_product_points = IF(VALUES(submission_id) > submission_id, VALUES(unreleased_product_points), unreleased_product_points),
		total_points = IF(VALUES(submission_id) > submission_id, VALUES(total_points), total_points),
		submission_id = GREATEST(submission_id, VALUES(submission_id))`

// SaveGraded records the submission and upserts the aggregate in one
// transaction.  It returns the id assigned to the submission.  Nothing is
// persisted when any step fails.
func (r *AnswerRepo) SaveGraded(ctx context.Context, userID uint64, answers map[string]string, b model.ScoreBreakdown) (uint64, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "INSERT INTO answer_submissions (user_id, answers) VALUES (?, ?)", userID, raw)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, upsertAggregate,
		userID, id, b.CTFFlagPoints, b.PIIPoints, b.UnreleasedProductPoints, b.Total()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// GetScore returns the stored aggregate; ok is false when the user has
// never submitted.
func (r *AnswerRepo) GetScore(ctx context.Context, userID uint64) (agg model.ScoreAggregate, ok bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT user_id, submission_id, ctf_flag_points, pii_points, unreleased_product_points, total_points, updated_at
		 FROM score_aggregates WHERE user_id = ?`, userID).Scan(
		&agg.UserID, &agg.SubmissionID, &agg.Breakdown.CTFFlagPoints, &agg.Breakdown.PIIPoints,
		&agg.Breakdown.UnreleasedProductPoints, &agg.TotalPoints, &agg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreAggregate{}, false, nil
	}
	if err != nil {
		return model.ScoreAggregate{}, false, err
	}
	return agg, true, nil
}

// ListSubmissions returns the audit trail of a user, oldest first.
func (r *AnswerRepo) ListSubmissions(ctx context.Context, userID uint64) ([]model.AnswerSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, answers, created_at FROM answer_submissions WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AnswerSubmission{}
	for rows.Next() {
		var (
			s   model.AnswerSubmission
			raw []byte
		)
		if err := rows.Scan(&s.ID, &s.UserID, &raw, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &s.Answers); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
