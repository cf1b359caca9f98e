package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taara-api/internal/application/announcement"
	"github.com/taara-api/internal/domain"
)

type AnnouncementHandler struct {
	svc announcement.Service
}

func NewAnnouncementHandler(svc announcement.Service) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.AnnouncementInput
	if !decode(w, r, &in) {
		return
	}
	ann, err := h.svc.Create(r.Context(), a.UserID, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ann)
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(list))
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.AnnouncementInput
	if !decode(w, r, &in) {
		return
	}
	ann, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "announcement deleted"})
}
