package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taara-api/internal/application/pet"
	"github.com/taara-api/internal/domain"
)

type PetHandler struct {
	svc pet.Service
}

func NewPetHandler(svc pet.Service) *PetHandler { return &PetHandler{svc: svc} }

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.PetInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List accepts ?status=available|adopted.
func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.PetStatus
	switch v := domain.PetStatus(r.URL.Query().Get("status")); v {
	case "":
	case domain.PetAvailable, domain.PetAdopted:
		status = &v
	default:
		writeError(w, http.StatusBadRequest, "unknown pet status")
		return
	}
	pets, err := h.svc.List(r.Context(), status)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(pets))
}

func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.PetInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pet deleted"})
}
