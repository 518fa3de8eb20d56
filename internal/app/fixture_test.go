package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"devexchange-service/internal/app"
	"devexchange-service/internal/domain"
	"devexchange-service/internal/infra/memory"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	votes   *memory.VoteRepository
	tracker *memory.RespondentTracker
	blobs   *memory.BlobStore
	outbox  *memory.Outbox
	cache   *memory.QuizRepository
	logger  *slog.Logger

	categories *app.CategoryService
	images     *app.ImageService
	quizzes    *app.QuizService
	answers    *app.AnswerService
	stats      *app.StatisticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		votes:   memory.NewVoteRepository(),
		tracker: memory.NewRespondentTracker(),
		blobs:   memory.NewBlobStore("http://blobs.test"),
		outbox:  memory.NewOutbox(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.cache = memory.NewQuizRepository(app.NewQuizAssembler(f.store, f.store), time.Minute)
	f.categories = app.NewCategoryService(f.store, f.votes, f.store, f.blobs, f.cache, f.logger)
	f.images = app.NewImageService(f.store, f.store, f.blobs, f.cache, f.logger)
	f.quizzes = app.NewQuizService(f.cache)
	f.stats = app.NewStatisticsService(f.store, f.store, f.votes, f.tracker, app.NewStatisticsHub(), f.logger).
		WithClock(func() time.Time { return fixedNow })
	f.answers = app.NewAnswerService(f.store, f.store, f.votes, f.tracker, f.stats, f.logger).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) grant(t *testing.T, userID, role string) {
	t.Helper()
	if err := f.store.GrantRole(context.Background(), userID, role, fixedNow); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

// birds creates the Birds category owned by u1 with questions color and size
// and uploads one image.
func (f *fixture) birds(t *testing.T) (domain.CategoryTree, domain.ImageUpload) {
	t.Helper()
	ctx := context.Background()
	f.grant(t, "u1", domain.RoleClassificationQuiz)
	owner := domain.Actor{UserID: "u1"}
	tree, err := f.categories.CreateFullCategory(ctx, owner, "Birds", []app.QuestionInput{
		{QuestionKey: "color", QuestionText: "What color?", Options: []string{"Red", "Blue"}},
		{QuestionKey: "size", QuestionText: "How big?", Options: []string{"Small", "Large"}},
	})
	if err != nil {
		t.Fatalf("create birds: %v", err)
	}
	batch, err := f.images.Upload(ctx, owner, tree.Category.ID, []domain.File{
		{Name: "b1.png", ContentType: "image/png", Body: bytes.NewReader([]byte("png"))},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return tree, batch.Images[0]
}

func option(t *testing.T, q domain.Question, text string) int64 {
	t.Helper()
	for _, o := range q.Options {
		if o.OptionText == text {
			return o.ID
		}
	}
	t.Fatalf("option %q not found", text)
	return 0
}

// failingBlobs wraps a blob store and fails selected operations.
type failingBlobs struct {
	app.BlobStore
	failUploadAfter int
	uploads         int
	failDelete      bool
}

func (b *failingBlobs) Upload(ctx context.Context, container, name, contentType string, body io.Reader) (string, error) {
	b.uploads++
	if b.failUploadAfter > 0 && b.uploads > b.failUploadAfter {
		return "", errors.New("storage unavailable")
	}
	return b.BlobStore.Upload(ctx, container, name, contentType, body)
}

func (b *failingBlobs) Delete(ctx context.Context, container, name string) error {
	if b.failDelete {
		return errors.New("storage unavailable")
	}
	return b.BlobStore.Delete(ctx, container, name)
}
