// Package types provides type definitions for structured data used throughout the interview-assistant system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CandidateStatus tracks where a candidate sits in the interview lifecycle.
type CandidateStatus string

// Candidate lifecycle statuses
const (
	CandidatePending    CandidateStatus = "pending"
	CandidateInProgress CandidateStatus = "in-progress"
	CandidateCompleted  CandidateStatus = "completed"
	CandidateRejected   CandidateStatus = "rejected"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateInProgress, CandidateCompleted, CandidateRejected:
		return true
	}
	return false
}

// Candidate represents one person in the interviewer-facing collection.
// Candidates are mutated only through store update operations and are never
// deleted implicitly.
type Candidate struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Position    string          `json:"position"`
	Skills      []string        `json:"skills"`
	Experience  int             `json:"experience"` // years
	Education   string          `json:"education,omitempty"`
	ResumeText  string          `json:"resume_text,omitempty"`
	Status      CandidateStatus `json:"status"`
	Score       *float64        `json:"score,omitempty"` // 0..1 aggregate, set on completion
	InterviewID *uuid.UUID      `json:"interview_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CandidateInfo carries the identity fields collected during onboarding,
// before a Candidate entity exists.
type CandidateInfo struct {
	Name       string   `json:"name" validate:"required,min=1"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"required,min=7"`
	Skills     []string `json:"skills,omitempty"`
	Position   string   `json:"position,omitempty"`
	Experience int      `json:"experience,omitempty"`
	Education  string   `json:"education,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

// Validate validates the CandidateInfo using the validator.
func (i *CandidateInfo) Validate() error {
	validate := validator.New()
	return validate.Struct(i)
}

// MissingFields returns the subset of required identity fields (name, email,
// phone) that are absent. An empty result means the info is complete enough
// to start an interview.
func (i *CandidateInfo) MissingFields() []string {
	var missing []string
	if i.Name == "" {
		missing = append(missing, "name")
	}
	if i.Email == "" {
		missing = append(missing, "email")
	}
	if i.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// Merge overlays the non-empty fields of other onto a copy of i. Previously
// collected values are preserved when other leaves them blank.
func (i CandidateInfo) Merge(other CandidateInfo) CandidateInfo {
	merged := i
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.Email != "" {
		merged.Email = other.Email
	}
	if other.Phone != "" {
		merged.Phone = other.Phone
	}
	if len(other.Skills) > 0 {
		merged.Skills = other.Skills
	}
	if other.Position != "" {
		merged.Position = other.Position
	}
	if other.Experience != 0 {
		merged.Experience = other.Experience
	}
	if other.Education != "" {
		merged.Education = other.Education
	}
	if other.Summary != "" {
		merged.Summary = other.Summary
	}
	return merged
}
