package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inspecasa/internal/imagestore"
	"github.com/erazemk/inspecasa/internal/imaging"
	"github.com/erazemk/inspecasa/internal/store"
)

// Upload kinds accepted by POST /api/uploads.
const (
	uploadKindPhoto     = "photo"
	uploadKindSignature = "signature"
)

// ImagesHandler stages uploads and serves images kept in the database.
type ImagesHandler struct {
	DB      *sql.DB
	Staging *imagestore.Staging
}

// Upload handles POST /api/uploads. The image is processed and kept on the
// server; the returned local reference is what inspection submissions
// carry until the inspection is completed.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize)

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		kind = uploadKindPhoto
	}

	var res *imaging.Result
	switch kind {
	case uploadKindPhoto:
		res, err = imaging.ProcessPhoto(file)
	case uploadKindSignature:
		res, err = imaging.ProcessSignature(file)
	default:
		jsonError(w, http.StatusBadRequest, "kind must be photo or signature")
		return
	}
	if errors.Is(err, imaging.ErrBlankSignature) {
		jsonError(w, http.StatusBadRequest, "please draw your signature")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}

	ref, err := h.Staging.Save(res.Data, res.Ext)
	if err != nil {
		slog.Error("failed to stage upload", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{"ref": ref})
}

// Get handles GET /api/images/{id}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	img, err := store.GetImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if img == nil {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}

	// Stored images are never rewritten under the same id.
	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(img.Data)
}
