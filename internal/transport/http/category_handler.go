package http

import (
	"net/http"

	"devexchange-service/internal/app"
)

type questionRequest struct {
	QuestionKey  string   `json:"questionKey" validate:"required,max=100"`
	QuestionText string   `json:"questionText" validate:"required,max=1000"`
	Options      []string `json:"options" validate:"required,min=1,dive,required,max=500"`
}

type createCategoryRequest struct {
	CategoryName string            `json:"categoryName" validate:"required,max=200"`
	Questions    []questionRequest `json:"questions" validate:"required,min=1,dive"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type featuredRequest struct {
	IsFeatured *bool `json:"isFeatured" validate:"required"`
}

// POST /full-category
func (h *Handler) createFullCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	inputs := make([]app.QuestionInput, len(req.Questions))
	for i, q := range req.Questions {
		inputs[i] = app.QuestionInput{QuestionKey: q.QuestionKey, QuestionText: q.QuestionText, Options: q.Options}
	}
	tree, err := h.svc.Categories.CreateFullCategory(r.Context(), actorFrom(r.Context()), req.CategoryName, inputs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	status, msg := http.StatusOK, "questions added to existing category"
	if tree.Created {
		status, msg = http.StatusCreated, "category created"
	}
	respondOK(w, status, msg, tree)
}

// GET /categories
func (h *Handler) listOwnCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories.ListOwn(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "categories", cats)
}

// GET /categories/featured
func (h *Handler) listFeaturedCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories.ListFeatured(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "featured categories", cats)
}

// GET /categories/{id}/questions
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	questions, err := h.svc.Categories.Questions(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "questions", questions)
}

// PATCH /categories/{id}/active
func (h *Handler) setCategoryActive(w http.ResponseWriter, r *http.Request) {
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
	cat, err := h.svc.Categories.SetActive(r.Context(), actorFrom(r.Context()), id, *req.IsActive)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "category updated", cat)
}

// PATCH /categories/{id}/featured
func (h *Handler) setCategoryFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req featuredRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	cat, err := h.svc.Categories.SetFeatured(r.Context(), actorFrom(r.Context()), id, *req.IsFeatured)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "category updated", cat)
}

// DELETE /categories/{id}
func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	report, err := h.svc.Categories.Delete(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	msg := "category deleted"
	if len(report.CleanupFailures) > 0 {
		msg = "category deleted with cleanup failures"
	}
	respondOK(w, http.StatusOK, msg, report)
}
