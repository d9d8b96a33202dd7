package model

import "time"

// AnswerSubmission is one append-only row of answer_submissions.  ID is an
// auto-increment and serves as the submission sequence number.
type AnswerSubmission struct {
	ID        uint64
	UserID    uint64
	Answers   map[string]string
	CreatedAt time.Time
}

// ScoreBreakdown holds the points awarded per fixed question class.
type ScoreBreakdown struct {
	CTFFlagPoints           int `json:"ctfFlagPoints"`
	PIIPoints               int `json:"piiPoints"`
	UnreleasedProductPoints int `json:"unreleasedProductPoints"`
}

// Total sums the breakdown.
func (b ScoreBreakdown) Total() int {
	return b.CTFFlagPoints + b.PIIPoints + b.UnreleasedProductPoints
}

// ScoreAggregate is the single score_aggregates row of a participant.
// SubmissionID records which submission produced it.
type ScoreAggregate struct {
	UserID       uint64
	SubmissionID uint64
	Breakdown    ScoreBreakdown
	TotalPoints  int
	UpdatedAt    time.Time
}
