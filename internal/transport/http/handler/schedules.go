package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taara-api/internal/application/schedule"
	"github.com/taara-api/internal/domain"
)

// ScheduleHandler handles kapon schedules and registrations.
type ScheduleHandler struct {
	svc schedule.Service
}

func NewScheduleHandler(svc schedule.Service) *ScheduleHandler { return &ScheduleHandler{svc: svc} }

// scheduleView adds the derived remaining-slot count.
type scheduleView struct {
	*domain.Schedule
	Remaining int `json:"remaining"`
}

func viewOf(s *domain.Schedule) scheduleView {
	return scheduleView{Schedule: s, Remaining: s.Remaining()}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.ScheduleInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.svc.Create(r.Context(), a.UserID, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(s))
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	views := make([]scheduleView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	writeJSON(w, http.StatusOK, listOf(views))
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "schedule deleted"})
}

// Register reserves a slot and files a kapon registration; the body is the request payload.
func (h *ScheduleHandler) Register(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.SubmitRequestInput
	if !decode(w, r, &in) {
		return
	}
	req, err := h.svc.Register(r.Context(), chi.URLParam(r, "id"), a.UserID, in.Payload)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ScheduleHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	regs, err := h.svc.ListRegistrations(r.Context(), a.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(regs))
}
