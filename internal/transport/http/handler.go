package http

import (
	"log/slog"
	"net/http"

	"devexchange-service/internal/app"
	"devexchange-service/internal/auth"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Categories   *app.CategoryService
	Images       *app.ImageService
	Quizzes      *app.QuizService
	Answers      *app.AnswerService
	Statistics   *app.StatisticsService
	Verification *app.VerificationService
	Showcase     *app.ShowcaseService
}

// Handler serves the REST API and the live statistics websocket.
type Handler struct {
	svc      Services
	auth     *auth.Authenticator
	validate *validator.Validate
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(svc Services, authenticator *auth.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		auth:     authenticator,
		validate: validator.New(),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the full router wrapped in logging and authentication.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /full-category", h.createFullCategory)
	mux.HandleFunc("GET /categories", h.listOwnCategories)
	mux.HandleFunc("GET /categories/featured", h.listFeaturedCategories)
	mux.HandleFunc("GET /categories/{id}/questions", h.listQuestions)
	mux.HandleFunc("PATCH /categories/{id}/active", h.setCategoryActive)
	mux.HandleFunc("PATCH /categories/{id}/featured", h.setCategoryFeatured)
	mux.HandleFunc("DELETE /categories/{id}", h.deleteCategory)

	mux.HandleFunc("POST /categories/{id}/images", h.uploadImages)
	mux.HandleFunc("GET /categories/{id}/images", h.listImages)
	mux.HandleFunc("PATCH /images/{id}/active", h.setImageActive)
	mux.HandleFunc("DELETE /images/{id}", h.deleteImage)
	mux.HandleFunc("GET /images/{id}/content", h.imageContent)

	mux.HandleFunc("GET /CreateQuiz/{configLinkId}", h.createQuiz)
	mux.HandleFunc("POST /SubmitImageAnswers", h.submitImageAnswers)

	mux.HandleFunc("GET /AnswerStatistics/config/sorted", h.sortedStatistics)
	mux.HandleFunc("GET /AnswerStatistics/export/{format}", h.exportStatistics)
	mux.HandleFunc("GET /AnswerStatistics/trend/{configLinkId}", h.trend)
	mux.HandleFunc("GET /ws/statistics", h.ServeStatisticsWS)

	mux.HandleFunc("POST /verification/{kind}/request", h.requestVerification)
	mux.HandleFunc("GET /verification/verify", h.verify)

	mux.HandleFunc("POST /website-connections", h.submitWebsite)
	mux.HandleFunc("GET /website-connections", h.listApprovedWebsites)
	mux.HandleFunc("GET /website-connections/pending", h.listPendingWebsites)
	mux.HandleFunc("POST /website-connections/{id}/approve", h.approveWebsite)
	mux.HandleFunc("DELETE /website-connections/{id}", h.removeWebsite)

	return h.logRequests(h.authenticate(mux))
}
