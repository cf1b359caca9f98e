package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taara-api/internal/application/lifecycle"
	"github.com/taara-api/internal/application/schedule"
	"github.com/taara-api/internal/domain"
)

// RequestHandler exposes the request lifecycle.
type RequestHandler struct {
	engine    lifecycle.Engine
	schedules schedule.Service
}

func NewRequestHandler(engine lifecycle.Engine, schedules schedule.Service) *RequestHandler {
	return &RequestHandler{engine: engine, schedules: schedules}
}

// Submit creates a request of the kind named in the path. Kapon registrations
// go through the schedule ledger so a slot is reserved first.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	kind := domain.RequestKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown request kind")
		return
	}
	var in domain.SubmitRequestInput
	if !decode(w, r, &in) {
		return
	}

	var (
		req *domain.Request
		err error
	)
	if kind == domain.KindKaponRegistration {
		if in.SubjectRef == nil || *in.SubjectRef == "" {
			httpError(w, &domain.ValidationError{Fields: []string{"subject_ref"}})
			return
		}
		req, err = h.schedules.Register(r.Context(), *in.SubjectRef, a.UserID, in.Payload)
	} else {
		req, err = h.engine.Submit(r.Context(), kind, a.UserID, in.SubjectRef, in.Payload)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) Mine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	reqs, err := h.engine.ListByOwner(r.Context(), a.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(reqs))
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// List is the admin review queue: ?kind=&status=&include_hidden=true.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.RequestFilter
	if v := q.Get("kind"); v != "" {
		kind := domain.RequestKind(v)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown request kind")
			return
		}
		filter.Kind = &kind
	}
	if v := q.Get("status"); v != "" {
		status := domain.RequestStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown request status")
			return
		}
		filter.Status = &status
	}
	filter.IncludeHidden = q.Get("include_hidden") == "true"

	reqs, err := h.engine.ListByStatus(r.Context(), filter)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(reqs))
}

func (h *RequestHandler) Transition(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.TransitionInput
	if !decode(w, r, &in) {
		return
	}
	req, err := h.engine.Transition(r.Context(), chi.URLParam(r, "id"), a, in.Status, in.AdminNotes)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.VisibilityInput
	if !decode(w, r, &in) {
		return
	}
	req, err := h.engine.SetHidden(r.Context(), chi.URLParam(r, "id"), a, in.Hidden)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
