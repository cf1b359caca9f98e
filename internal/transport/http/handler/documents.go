package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taara-api/internal/application/document"
	"github.com/taara-api/internal/domain"
)

const maxUploadBytes = 10 << 20

// DocumentHandler handles identity and residence document uploads.
type DocumentHandler struct {
	svc document.Service
}

func NewDocumentHandler(svc document.Service) *DocumentHandler { return &DocumentHandler{svc: svc} }

type documentEnvelope struct {
	*domain.Document
	URL string `json:"url"`
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()
	if header.Size > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	doc, err := h.svc.Upload(r.Context(), document.UploadInput{
		Reader:     f,
		Filename:   header.Filename,
		Size:       header.Size,
		UploaderID: a.UserID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	docs, err := h.svc.ListMine(r.Context(), a.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(docs))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	doc, url, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentEnvelope{Document: doc, URL: url})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), a); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "document deleted"})
}
