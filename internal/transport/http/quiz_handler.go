package http

import (
	"net/http"

	"devexchange-service/internal/domain"
)

type answerRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
	OptionID   int64 `json:"optionId" validate:"required,gt=0"`
}

type submitAnswersRequest struct {
	ImageName  string          `json:"imageName" validate:"required"`
	ImagePath  string          `json:"imagePath"`
	CategoryID int64           `json:"categoryId" validate:"required,gt=0"`
	Answers    []answerRequest `json:"answers" validate:"required,min=1,dive"`
}

// GET /CreateQuiz/{configLinkId}
func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	link, err := pathID(r, "configLinkId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quiz, err := h.svc.Quizzes.CreateQuiz(r.Context(), link)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "quiz", quiz)
}

// POST /SubmitImageAnswers
func (h *Handler) submitImageAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitAnswersRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	sub := domain.AnswerSubmission{
		ImageName:  req.ImageName,
		ImagePath:  req.ImagePath,
		CategoryID: req.CategoryID,
		Answers:    make([]domain.Answer, len(req.Answers)),
	}
	for i, a := range req.Answers {
		sub.Answers[i] = domain.Answer{QuestionID: a.QuestionID, OptionID: a.OptionID}
	}
	result, err := h.svc.Answers.SubmitImageAnswers(r.Context(), respondentID(w, r), sub)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "answers recorded", result)
}
