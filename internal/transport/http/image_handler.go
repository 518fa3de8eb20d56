package http

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"devexchange-service/internal/domain"
)

const maxUploadBytes = 64 << 20

// POST /categories/{id}/images, multipart field "files".
func (h *Handler) uploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.respondError(w, r, domain.Invalid("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files, closeAll, err := openFiles(headers)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	defer closeAll()

	batch, err := h.svc.Images.Upload(r.Context(), actorFrom(r.Context()), id, files)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "images uploaded", batch)
}

func openFiles(headers []*multipart.FileHeader) ([]domain.File, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	files := make([]domain.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, domain.Invalid("cannot read file " + fh.Filename)
		}
		opened = append(opened, f)
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, domain.File{Name: fh.Filename, ContentType: ct, Body: f})
	}
	return files, closeAll, nil
}

// GET /categories/{id}/images
func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	images, err := h.svc.Images.List(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "images", images)
}

// PATCH /images/{id}/active
func (h *Handler) setImageActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req activeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	img, err := h.svc.Images.SetActive(r.Context(), actorFrom(r.Context()), id, *req.IsActive)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "image updated", img)
}

// DELETE /images/{id}
func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.Images.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "image deleted", nil)
}

// GET /images/{id}/content streams the stored bytes.
func (h *Handler) imageContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	img, data, err := h.svc.Images.Content(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `inline; filename="`+img.ImageName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
