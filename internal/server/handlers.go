package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-assistant/internal/search"
	"github.com/jonathan/interview-assistant/internal/session"
	"github.com/jonathan/interview-assistant/internal/store"
	"github.com/jonathan/interview-assistant/internal/timer"
	"github.com/jonathan/interview-assistant/internal/types"
)

// respondError writes the error with the status HTTPStatus derives for it.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

// sessionError maps the state machine's guard errors onto typed API errors so
// they surface as 409 instead of 500.
func sessionError(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "cannot ") ||
		strings.Contains(msg, "already answered") ||
		strings.Contains(msg, "no question is active") {
		return &ErrInvalidState{Message: msg}
	}
	return err
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a valid UUID"}
	}
	return id, nil
}

// newSession builds a state machine wired to a fresh event hub and registers
// it. Timer ticks and expirations stream to SSE subscribers.
func (s *Server) newSession() (*liveSession, error) {
	hub := newEventHub()
	m, err := session.New(session.Config{
		Store:     s.store,
		Generator: s.generator,
		Evaluator: s.evaluator,
		Precision: s.precision,
		OnTick: func(remaining time.Duration) {
			hub.Publish("tick", map[string]any{
				"remaining_ms": remaining.Milliseconds(),
				"display":      timer.FormatDuration(remaining, timer.FormatMMSS),
			})
		},
		OnTimeout: func(q *types.Question) {
			hub.Publish("timeout", map[string]any{
				"question_id": q.ID,
				"question":    q.Text,
			})
		},
	})
	if err != nil {
		return nil, err
	}
	return s.sessions.Add(m, hub), nil
}

// sessionView is the canonical session representation returned by the API.
func sessionView(ls *liveSession) map[string]any {
	m := ls.Machine
	view := map[string]any{
		"session_id": ls.ID,
		"state":      m.State(),
		"info":       m.Info(),
	}
	if iv := m.Interview(); iv != nil {
		view["interview"] = iv
		if q := m.CurrentQuestion(); q != nil {
			snap := m.TimerSnapshot()
			view["current_question"] = q
			view["timer"] = map[string]any{
				"remaining_ms": snap.TimeLeft.Milliseconds(),
				"display":      timer.FormatDuration(snap.TimeLeft, timer.FormatMMSS),
				"progress":     snap.Progress,
				"running":      snap.Running,
				"paused":       snap.Paused,
			}
		}
	}
	return view
}

// handleExtractResume extracts structured candidate data from raw resume text
// or HTML.
func (s *Server) handleExtractResume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resume string `json:"resume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Resume) == "" {
		s.respondError(w, &ErrValidation{Field: "resume", Message: "resume text is required"})
		return
	}

	data, err := s.extractor.Extract(r.Context(), req.Resume)
	if err != nil {
		s.respondError(w, err)
		return
	}
	info := data.CandidateInfo()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"data":           data,
		"missing_fields": info.MissingFields(),
	})
}

// handleCreateSession starts a new onboarding session. The request may seed
// identity from a resume, from explicit fields, or both; the response reports
// which required fields are still missing.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resume string               `json:"resume,omitempty"`
		Info   *types.CandidateInfo `json:"info,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	ls, err := s.newSession()
	if err != nil {
		s.respondError(w, err)
		return
	}

	var missing []string
	if strings.TrimSpace(req.Resume) != "" {
		data, err := s.extractor.Extract(r.Context(), req.Resume)
		if err != nil {
			s.sessions.Remove(ls.ID)
			s.respondError(w, err)
			return
		}
		missing = ls.Machine.ApplyResume(data, req.Resume)
	}
	if req.Info != nil {
		missing = ls.Machine.SupplyInfo(*req.Info)
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"session_id":     ls.ID,
		"state":          ls.Machine.State(),
		"missing_fields": missing,
	})
}

// handleGetSession returns the session state, current question, and timer.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionView(ls))
}

// handleSupplyInfo merges manually entered identity fields into the session.
func (s *Server) handleSupplyInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	var info types.CandidateInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	missing := ls.Machine.SupplyInfo(info)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"state":          ls.Machine.State(),
		"missing_fields": missing,
	})
}

// handleStartSession generates the question sequence and begins the interview.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	interview, err := ls.Machine.Start(r.Context())
	if err != nil {
		s.respondError(w, sessionError(err))
		return
	}
	s.index.Invalidate()
	ls.Hub.Publish("started", map[string]any{"interview_id": interview.ID})

	s.jsonResponse(w, http.StatusOK, sessionView(ls))
}

// handleSubmitAnswer records an answer for the active question and advances
// the interview.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	answer, done, err := ls.Machine.SubmitAnswer(r.Context(), req.Text)
	if err != nil {
		s.respondError(w, sessionError(err))
		return
	}
	ls.Hub.Publish("answer", map[string]any{
		"question_id": answer.QuestionID,
		"score":       answer.Score,
		"done":        done,
	})

	resp := map[string]any{"answer": answer, "done": done}
	if q := ls.Machine.CurrentQuestion(); q != nil {
		resp["next_question"] = q
		resp["remaining_ms"] = ls.Machine.Remaining().Milliseconds()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleTimeout resolves an expired question per the candidate's decision.
func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	var req struct {
		Draft    string `json:"draft"`
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	var decision session.TimeoutDecision
	switch req.Decision {
	case "submit":
		decision = session.TimeoutSubmit
	case "review":
		decision = session.TimeoutReview
	default:
		s.respondError(w, &ErrValidation{Field: "decision", Message: "must be 'submit' or 'review'"})
		return
	}

	answer, done, err := ls.Machine.HandleTimeout(r.Context(), req.Draft, decision)
	if err != nil {
		s.respondError(w, sessionError(err))
		return
	}

	resp := map[string]any{"done": done}
	if answer != nil {
		resp["answer"] = answer
		if q := ls.Machine.CurrentQuestion(); q != nil {
			resp["next_question"] = q
			resp["remaining_ms"] = ls.Machine.Remaining().Milliseconds()
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleCompleteSession finalizes the interview and returns the scored result.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	interview, err := ls.Machine.Complete(r.Context())
	if err != nil {
		s.respondError(w, sessionError(err))
		return
	}
	s.index.Invalidate()
	ls.Hub.Publish("complete", map[string]any{
		"interview_id": interview.ID,
		"score":        interview.Score,
	})

	s.jsonResponse(w, http.StatusOK, map[string]any{"interview": interview})
}

// handleSessionEvents streams session events (ticks, timeouts, answers,
// completion) over SSE until the client disconnects.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	ls, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, cancel := ls.Hub.Subscribe()
	defer cancel()

	// Initial snapshot so late subscribers see the current state.
	if err := sse.WriteEvent("state", sessionView(ls)); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := sse.WriteEvent(ev.Name, ev.Data); err != nil {
				return
			}
		}
	}
}

// handleCheckRecovery reports whether an interrupted session exists for the
// candidate.
func (s *Server) handleCheckRecovery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	snap, err := session.CheckRecovery(r.Context(), s.store, id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"available": snap != nil,
		"snapshot":  snap,
	})
}

// handleResumeRecovery rebuilds a live session from the candidate's recovery
// snapshot and restarts the current question's timer.
func (s *Server) handleResumeRecovery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	snap, err := session.CheckRecovery(r.Context(), s.store, id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if snap == nil {
		s.respondError(w, &ErrCandidateNotFound{CandidateID: id})
		return
	}

	ls, err := s.newSession()
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := ls.Machine.ResumeRecovered(r.Context(), snap); err != nil {
		s.sessions.Remove(ls.ID)
		s.respondError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, sessionView(ls))
}

// handleDiscardRecovery abandons an interrupted session.
func (s *Server) handleDiscardRecovery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := session.DiscardRecovery(r.Context(), s.store, id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCandidates returns the candidate collection, optionally filtered
// by a fuzzy query (?q=) and sorted (?sort=name|score|date&order=asc|desc).
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.store.ListCandidates(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	query := r.URL.Query().Get("q")
	key, order, err := sortParams(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	results := s.index.Search(candidates, query, key, order)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"candidates": results,
		"total":      len(results),
	})
}

func sortParams(r *http.Request) (search.SortKey, search.SortOrder, error) {
	key := search.SortKey(r.URL.Query().Get("sort"))
	switch key {
	case "":
		key = search.SortByDate
	case search.SortByName, search.SortByScore, search.SortByDate:
	default:
		return "", "", &ErrValidation{Field: "sort", Message: "must be 'name', 'score', or 'date'"}
	}

	order := search.SortOrder(r.URL.Query().Get("order"))
	switch order {
	case "":
		order = search.Descending
	case search.Ascending, search.Descending:
	default:
		return "", "", &ErrValidation{Field: "order", Message: "must be 'asc' or 'desc'"}
	}
	return key, order, nil
}

// handleGetCandidate returns one candidate by ID, along with their interview
// record when one exists.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	candidate, err := s.store.GetCandidate(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, &ErrCandidateNotFound{CandidateID: id})
			return
		}
		s.respondError(w, err)
		return
	}

	resp := map[string]any{"candidate": candidate}
	if candidate.InterviewID != nil {
		var interview *types.Interview
		var snapshot *types.RecoverySnapshot
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			interview, err = s.store.GetInterview(ctx, *candidate.InterviewID)
			return err
		})
		g.Go(func() error {
			snapshot, _ = session.CheckRecovery(ctx, s.store, candidate.ID)
			return nil
		})
		if err := g.Wait(); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.respondError(w, err)
			return
		}
		if interview != nil {
			resp["interview"] = interview
		}
		resp["recoverable"] = snapshot != nil
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleUpdateCandidate applies partial updates to a candidate's identity and
// status fields.
func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	candidate, err := s.store.GetCandidate(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, &ErrCandidateNotFound{CandidateID: id})
			return
		}
		s.respondError(w, err)
		return
	}

	var req struct {
		Name     *string                `json:"name,omitempty"`
		Email    *string                `json:"email,omitempty"`
		Phone    *string                `json:"phone,omitempty"`
		Position *string                `json:"position,omitempty"`
		Skills   []string               `json:"skills,omitempty"`
		Status   *types.CandidateStatus `json:"status,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	if req.Name != nil {
		candidate.Name = *req.Name
	}
	if req.Email != nil {
		candidate.Email = *req.Email
	}
	if req.Phone != nil {
		candidate.Phone = *req.Phone
	}
	if req.Position != nil {
		candidate.Position = *req.Position
	}
	if req.Skills != nil {
		candidate.Skills = req.Skills
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			s.respondError(w, &ErrValidation{Field: "status", Message: "unknown status"})
			return
		}
		candidate.Status = *req.Status
	}
	candidate.UpdatedAt = time.Now()

	if err := s.store.UpdateCandidate(r.Context(), candidate); err != nil {
		s.respondError(w, err)
		return
	}
	s.index.Invalidate()
	s.jsonResponse(w, http.StatusOK, candidate)
}

// handleDeleteCandidate removes a candidate and their interviews.
func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.store.DeleteCandidate(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, &ErrCandidateNotFound{CandidateID: id})
			return
		}
		s.respondError(w, err)
		return
	}
	s.index.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// handleGetInterview returns one interview record by ID.
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	interview, err := s.store.GetInterview(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, &ErrInterviewNotFound{InterviewID: id})
			return
		}
		s.respondError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, interview)
}
