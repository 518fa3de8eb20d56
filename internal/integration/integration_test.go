package integration

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"devexchange-service/internal/app"
	"devexchange-service/internal/domain"
	"devexchange-service/internal/infra/memory"
	"devexchange-service/internal/infra/postgres"
	pgmigrations "devexchange-service/internal/infra/postgres/migrations"
	infraredis "devexchange-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type stack struct {
	store      *postgres.Store
	votes      *postgres.VoteRepository
	categories *app.CategoryService
	images     *app.ImageService
	quizzes    *app.QuizService
	answers    *app.AnswerService
	stats      *app.StatisticsService
}

func TestClassificationEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	s := newStack(t, ctx, pgURL, redisURL)
	owner := domain.Actor{UserID: "u1", Admin: true}

	tree, err := s.categories.CreateFullCategory(ctx, owner, "Birds", []app.QuestionInput{
		{QuestionKey: "color", QuestionText: "What color?", Options: []string{"Red", "Blue"}},
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if !tree.Created || tree.Category.ConfigLinkID == 0 {
		t.Fatalf("expected a new category with a link id, got %+v", tree.Category)
	}
	_, err = s.categories.CreateFullCategory(ctx, owner, "Birds", []app.QuestionInput{
		{QuestionKey: "color", QuestionText: "Again", Options: []string{"Green"}},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Duplicates) != 1 {
		t.Fatalf("expected duplicate key rejection, got %v", err)
	}

	batch, err := s.images.Upload(ctx, owner, tree.Category.ID, []domain.File{
		{Name: "b1.png", ContentType: "image/png", Body: bytes.NewReader([]byte("png"))},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	quiz, err := s.quizzes.CreateQuiz(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(quiz.Images) != 1 || len(quiz.Questions) != 1 || len(quiz.Questions[0].Options) != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	color := quiz.Questions[0]
	red, blue := color.Options[0].ID, color.Options[1].ID
	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			optionID := red
			if i%4 == 0 {
				optionID = blue
			}
			_, err := s.answers.SubmitImageAnswers(ctx, fmt.Sprintf("s%d", i), domain.AnswerSubmission{
				ImageName:  batch.Images[0].ImageName,
				CategoryID: tree.Category.ID,
				Answers:    []domain.Answer{{QuestionID: color.ID, OptionID: optionID}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	stat, err := s.stats.CategoryStatistics(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	q := stat.Images[0].Questions[0]
	if q.TotalVotes != voters {
		t.Fatalf("expected %d votes without lost updates, got %d", voters, q.TotalVotes)
	}
	if q.Options[0].Count != 15 || q.Options[0].Percentage != 75 || q.Options[1].Percentage != 25 {
		t.Fatalf("unexpected option statistics %+v", q.Options)
	}

	trend, err := s.stats.Trend(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if trend.Buckets[0].UniqueUsers != voters {
		t.Fatalf("expected %d respondents today, got %+v", voters, trend.Buckets)
	}

	report, err := s.categories.Delete(ctx, owner, tree.Category.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if report.ImagesDeleted != 1 || len(report.CleanupFailures) != 0 {
		t.Fatalf("unexpected delete report %+v", report)
	}
	if votes, err := s.votes.ListVotes(ctx, tree.Category.ConfigLinkID); err != nil || len(votes) != 0 {
		t.Fatalf("expected counters removed, got %+v %v", votes, err)
	}
	if _, err := s.quizzes.CreateQuiz(ctx, tree.Category.ConfigLinkID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted quiz to be gone, got %v", err)
	}
}

func TestConcurrentFirstCategoryCreation(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	s := newStack(t, ctx, pgURL, redisURL)
	owner := domain.Actor{UserID: "u1", Admin: true}
	keys := []string{"color", "size", "beak", "wings"}

	trees := make([]domain.CategoryTree, len(keys))
	errs := make([]error, len(keys))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			<-start
			trees[i], errs[i] = s.categories.CreateFullCategory(ctx, owner, "Owls", []app.QuestionInput{
				{QuestionKey: key, QuestionText: key + "?", Options: []string{"Yes", "No"}},
			})
		}(i, key)
	}
	close(start)
	wg.Wait()

	created := 0
	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %s: %v", keys[i], err)
		}
		if trees[i].Category.ConfigLinkID != trees[0].Category.ConfigLinkID {
			t.Fatalf("expected one shared category, got link ids %d and %d", trees[0].Category.ConfigLinkID, trees[i].Category.ConfigLinkID)
		}
		if trees[i].Created {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one creation, got %d", created)
	}

	quiz, err := s.quizzes.CreateQuiz(ctx, trees[0].Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(quiz.Questions) != len(keys) {
		t.Fatalf("expected all %d questions on the shared category, got %d", len(keys), len(quiz.Questions))
	}
}

func TestVerificationTokensInPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	db := openDB(t, ctx, pgURL)
	store := postgres.NewStore(db)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	token := domain.VerificationToken{
		UserID:    "u1",
		Kind:      domain.RoleWebConnect,
		Email:     "u1@devexchange.test",
		Token:     "tok-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.ReplaceToken(ctx, token); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := store.ConsumeToken(ctx, "tok-1", now.Add(2*time.Hour)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expired: expected invalid token, got %v", err)
	}
	consumed, err := store.ConsumeToken(ctx, "tok-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.VerifiedAt == nil {
		t.Fatalf("expected verified timestamp")
	}
	if ok, err := store.HasRole(ctx, "u1", domain.RoleWebConnect); err != nil || !ok {
		t.Fatalf("expected role granted, got %v %v", ok, err)
	}
	if _, err := store.ConsumeToken(ctx, "tok-1", now.Add(time.Minute)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("reuse: expected invalid token, got %v", err)
	}
}

func newStack(t *testing.T, ctx context.Context, pgURL, redisURL string) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := openDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	store := postgres.NewStore(db)
	votes := postgres.NewVoteRepository(pool)
	tracker := infraredis.NewRespondentTracker(redisClient)
	cache := infraredis.NewQuizRepository(redisClient, app.NewQuizAssembler(store, store), 5*time.Minute, logger)
	blobs := memory.NewBlobStore("http://blobs.test")
	stats := app.NewStatisticsService(store, store, votes, tracker, app.NewStatisticsHub(), logger)

	return &stack{
		store:      store,
		votes:      votes,
		categories: app.NewCategoryService(store, votes, store, blobs, cache, logger),
		images:     app.NewImageService(store, store, blobs, cache, logger),
		quizzes:    app.NewQuizService(cache),
		answers:    app.NewAnswerService(store, store, votes, tracker, stats, logger),
		stats:      stats,
	}
}

func openDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "devexchange", "POSTGRES_PASSWORD": "devexchange", "POSTGRES_DB": "devexchange"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://devexchange:devexchange@%s:%s/devexchange?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
