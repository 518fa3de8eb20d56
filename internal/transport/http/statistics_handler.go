package http

import (
	"net/http"
	"strconv"

	"devexchange-service/internal/domain"
)

// GET /AnswerStatistics/config/sorted?configLinkId=N
func (h *Handler) sortedStatistics(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).UserID == "" {
		h.respondError(w, r, domain.ErrLoginRequired)
		return
	}
	link, ok, err := queryID(r, "configLinkId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if ok {
		stat, err := h.svc.Statistics.CategoryStatistics(r.Context(), link)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		respondOK(w, http.StatusOK, "statistics", []domain.CategoryStatistic{stat})
		return
	}
	stats, err := h.svc.Statistics.Statistics(r.Context(), 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "statistics", stats.Categories)
}

// GET /AnswerStatistics/export/{format}?configLinkId=N
func (h *Handler) exportStatistics(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).UserID == "" {
		h.respondError(w, r, domain.ErrLoginRequired)
		return
	}
	link, _, err := queryID(r, "configLinkId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	file, err := h.svc.Statistics.Export(r.Context(), r.PathValue("format"), link)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(file.Body)
}

// GET /AnswerStatistics/trend/{configLinkId}
func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).UserID == "" {
		h.respondError(w, r, domain.ErrLoginRequired)
		return
	}
	link, err := pathID(r, "configLinkId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	trend, err := h.svc.Statistics.Trend(r.Context(), link)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "trend", trend)
}
