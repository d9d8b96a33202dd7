package service

import (
	"bytes"
	"encoding/json"
	"strings"
)

// QuestionID names a graded question.
type QuestionID string

// Fixed question ids.  PII questions are per participant, see PIIQuestion.
const (
	QuestionCTFFlag           QuestionID = "ctfText"
	QuestionUnreleasedProduct QuestionID = "unreleasedProductDescription"
)

const piiSuffix = "PII"

// PIIQuestion is the question id under which other teams submit
// username's PII.
func PIIQuestion(username string) QuestionID {
	return QuestionID(strings.ToLower(username) + piiSuffix)
}

// Answers maps question ids to free-text answers.  Keys outside the known
// question set are carried along for the audit record and never graded.
type Answers map[QuestionID]string

// ParseAnswers decodes a JSON object of strings.  A missing body, null,
// or anything other than an object whose values are all strings is
// rejected with InvalidInput.
func ParseAnswers(raw json.RawMessage) (Answers, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, Errorf(InvalidInput, "answers must be an object")
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, Errorf(InvalidInput, "answers must map question ids to strings")
	}
	out := make(Answers, len(m))
	for k, v := range m {
		out[QuestionID(k)] = v
	}
	return out, nil
}

// Plain converts a to the storage representation.
func (a Answers) Plain() map[string]string {
	out := make(map[string]string, len(a))
	for k, v := range a {
		out[string(k)] = v
	}
	return out
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// matches compares a submission to a canonical answer after normalizing
// both.  An empty canonical answer never matches.
func matches(submitted, canonical string) bool {
	c := normalize(canonical)
	return c != "" && normalize(submitted) == c
}
