package http

import (
	"net/http"
	"strings"

	"devexchange-service/internal/domain"
)

type verifyResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type websiteForm struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	WebsiteURL  string `validate:"required,http_url"`
}

// POST /verification/{kind}/request
func (h *Handler) requestVerification(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Verification.Request(r.Context(), actorFrom(r.Context()), r.PathValue("kind"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	msg := "verification email sent"
	if status.Status == domain.VerificationPending {
		msg = "verification already pending"
	}
	respondOK(w, http.StatusOK, msg, status)
}

// GET /verification/verify?token=...
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token, err := h.svc.Verification.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "role granted", verifyResponse{UserID: token.UserID, Role: token.Kind})
}

// POST /website-connections, multipart with title, description, websiteUrl and banner.
func (h *Handler) submitWebsite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		h.respondError(w, r, domain.Invalid("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := websiteForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		WebsiteURL:  strings.TrimSpace(r.FormValue("websiteUrl")),
	}
	if err := h.validateStruct(form); err != nil {
		h.respondError(w, r, err)
		return
	}
	banners, closeAll, err := openFiles(r.MultipartForm.File["banner"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	defer closeAll()
	if len(banners) == 0 {
		h.respondError(w, r, domain.Invalid("banner is required"))
		return
	}

	site, err := h.svc.Showcase.Submit(r.Context(), actorFrom(r.Context()), domain.WebsiteSubmission{
		Title:       form.Title,
		Description: form.Description,
		WebsiteURL:  form.WebsiteURL,
		Banner:      banners[0],
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "website submitted for review", site)
}

// GET /website-connections
func (h *Handler) listApprovedWebsites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.svc.Showcase.ListApproved(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "websites", sites)
}

// GET /website-connections/pending
func (h *Handler) listPendingWebsites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.svc.Showcase.ListPending(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "pending websites", sites)
}

// POST /website-connections/{id}/approve
func (h *Handler) approveWebsite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	site, err := h.svc.Showcase.Approve(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "website approved", site)
}

// DELETE /website-connections/{id}
func (h *Handler) removeWebsite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.Showcase.Remove(r.Context(), actorFrom(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "website removed", nil)
}
