// Package queue defines message payloads exchanged over the message broker.
package queue

// ScoringQueue is the durable queue every scoring event is published to.
const ScoringQueue = "scoring.events"

// Event types.
const (
	TypeAnswersGraded      = "answers.graded"
	TypeSelfAttempt        = "scoring.self_attempt"
	TypeScoreboardSnapshot = "scoreboard.snapshot"
)

// Event is published whenever scoring state changes or is sampled.  It
// carries enough information for downstream consumers to log or trigger
// analytics without querying the primary database.  Fields that do not
// apply to a given Type are left empty.
type Event struct {
	Type         string     `json:"type"`
	UserID       uint64     `json:"user_id,omitempty"`
	Username     string     `json:"username,omitempty"`
	SubmissionID uint64     `json:"submission_id,omitempty"`
	Scores       *Scores    `json:"scores,omitempty"`
	Key          string     `json:"key,omitempty"` // question id of a self attempt
	Standings    []Standing `json:"standings,omitempty"`
	OccurredAt   string     `json:"occurred_at"`
}

// Scores mirrors the fixed-question breakdown of a graded submission.
type Scores struct {
	CTFFlagPoints           int `json:"ctf_flag_points"`
	PIIPoints               int `json:"pii_points"`
	UnreleasedProductPoints int `json:"unreleased_product_points"`
	TotalPoints             int `json:"total_points"`
}

// Standing is one scoreboard row inside a snapshot.
type Standing struct {
	TeamName   string  `json:"team_name"`
	TotalScore float64 `json:"total_score"`
}
