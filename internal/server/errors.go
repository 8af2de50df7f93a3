// Package server provides the HTTP REST API for the interview assistant.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrCandidateNotFound indicates the candidate was not found
type ErrCandidateNotFound struct {
	CandidateID uuid.UUID
}

func (e *ErrCandidateNotFound) Error() string {
	return fmt.Sprintf("candidate not found: %s", e.CandidateID)
}

// ErrSessionNotFound indicates no live session exists for the given ID
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrInterviewNotFound indicates the interview record was not found
type ErrInterviewNotFound struct {
	InterviewID uuid.UUID
}

func (e *ErrInterviewNotFound) Error() string {
	return fmt.Sprintf("interview not found: %s", e.InterviewID)
}

// ErrInvalidState indicates an operation was attempted in the wrong
// session state (e.g. answering before the interview starts)
type ErrInvalidState struct {
	Message string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("invalid session state: %s", e.Message)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrCandidateNotFound, *ErrSessionNotFound, *ErrInterviewNotFound:
		return http.StatusNotFound
	case *ErrInvalidState:
		return http.StatusConflict
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
