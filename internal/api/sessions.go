package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexanderramin/pistemind/internal/contract"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/service"
)

// CreateSession starts a session, or resumes the one named in the body.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req contract.CreateSessionRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	iface := req.Interface
	if iface == "" {
		iface = domain.InterfaceAPI
	}
	sess, err := h.sessions.GetOrCreate(r.Context(), req.SessionID, service.CreateSessionRequest{
		Interface: iface,
		UserID:    req.UserID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if req.SessionID != "" && sess.ID == req.SessionID {
		status = http.StatusOK
	}
	JSON(w, status, contract.FromSession(sess))
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.SessionFilter
	if v := q.Get("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := q.Get("state"); v != "" {
		state := domain.SessionState(v)
		filter.State = &state
	}
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.sessions.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.FromSummaries(list))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, sess, err)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.sessions.Events(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.FromEvents(evs))
}

func (h *Handler) GenerateScenario(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GenerateScenario(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, sess, err)
}

func (h *Handler) RecordChoice(w http.ResponseWriter, r *http.Request) {
	var req contract.ChoiceRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	choice, err := domain.ParseChoice(req.Choice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.sessions.RecordChoice(r.Context(), chi.URLParam(r, "id"), choice)
	h.respond(w, r, sess, err)
}

func (h *Handler) RecordExplanation(w http.ResponseWriter, r *http.Request) {
	var req contract.ExplanationRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.sessions.RecordExplanation(r.Context(), chi.URLParam(r, "id"), req.Explanation)
	h.respond(w, r, sess, err)
}

func (h *Handler) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GenerateFeedback(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, sess, err)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Complete(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, sess, err)
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	var req contract.AbandonRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.sessions.Abandon(r.Context(), chi.URLParam(r, "id"), req.Reason)
	h.respond(w, r, sess, err)
}

func (h *Handler) SystemAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.SystemAnalytics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.FromSystemAnalytics(stats))
}

func (h *Handler) UserPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.sessions.UserPerformance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.FromUserPerformance(perf))
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req contract.CleanupRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	var olderThan time.Duration
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d <= 0 {
			h.writeError(w, r, &domain.ValidationError{Field: "older_than", Msg: "must be a positive duration such as 24h"})
			return
		}
		olderThan = d
	}
	n, err := h.sessions.CleanupStale(r.Context(), olderThan)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.CleanupResponse{Abandoned: n})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, sess *domain.TrainingSession, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, contract.FromSession(sess))
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Msg: "must be an integer"}
	}
	return n, nil
}
