package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devexchange-service/internal/domain"
)

// QuestionInput is one question of a create-category request.
type QuestionInput struct {
	QuestionKey  string
	QuestionText string
	Options      []string
}

// CategoryService owns category creation, moderation toggles and cascading deletes.
type CategoryService struct {
	categories CategoryRepository
	votes      VoteRepository
	roles      RoleRepository
	blobs      BlobStore
	cache      QuizCache
	logger     *slog.Logger
	now        func() time.Time
}

func NewCategoryService(categories CategoryRepository, votes VoteRepository, roles RoleRepository, blobs BlobStore, cache QuizCache, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		votes:      votes,
		roles:      roles,
		blobs:      blobs,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateFullCategory creates a category with its questions, or extends the
// caller's existing category of the same name.
func (s *CategoryService) CreateFullCategory(ctx context.Context, actor domain.Actor, categoryName string, inputs []QuestionInput) (domain.CategoryTree, error) {
	if err := requireRole(ctx, s.roles, actor, domain.RoleClassificationQuiz); err != nil {
		return domain.CategoryTree{}, err
	}
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return domain.CategoryTree{}, domain.Invalid("categoryName is required")
	}
	questions, err := normalizeQuestions(inputs)
	if err != nil {
		return domain.CategoryTree{}, err
	}

	tree, err := s.categories.CreateCategoryTree(ctx, domain.Category{
		CategoryName: categoryName,
		UserID:       actor.UserID,
		CreatedDate:  s.now().UTC(),
		IsActive:     true,
	}, questions)
	if err != nil {
		return domain.CategoryTree{}, err
	}
	s.cache.Invalidate(ctx, tree.Category.ConfigLinkID)
	s.logger.Info("category saved",
		"categoryId", tree.Category.ID,
		"configLinkId", tree.Category.ConfigLinkID,
		"created", tree.Created,
		"questions", len(tree.Questions))
	return tree, nil
}

func normalizeQuestions(inputs []QuestionInput) ([]domain.Question, error) {
	if len(inputs) == 0 {
		return nil, domain.Invalid("at least one question is required")
	}
	questions := make([]domain.Question, 0, len(inputs))
	for i, in := range inputs {
		key := strings.TrimSpace(in.QuestionKey)
		text := strings.TrimSpace(in.QuestionText)
		if key == "" || text == "" {
			return nil, domain.Invalid(fmt.Sprintf("question %d needs a questionKey and questionText", i+1))
		}
		q := domain.Question{QuestionKey: key, QuestionText: text}
		for _, opt := range in.Options {
			opt = strings.TrimSpace(opt)
			if opt == "" {
				continue
			}
			q.Options = append(q.Options, domain.Option{OptionText: opt, IsCorrect: false})
		}
		if len(q.Options) == 0 {
			return nil, domain.Invalid(fmt.Sprintf("question %q needs at least one option", key))
		}
		questions = append(questions, q)
	}
	if dups := domain.CollidingKeys(nil, questions); len(dups) > 0 {
		return nil, &domain.ValidationError{Message: "duplicate question keys in request", Duplicates: dups}
	}
	return questions, nil
}

// ListOwn returns the caller's categories.
func (s *CategoryService) ListOwn(ctx context.Context, actor domain.Actor) ([]domain.Category, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.categories.ListCategoriesByUser(ctx, actor.UserID)
}

// ListFeatured returns active featured categories for the public landing page.
func (s *CategoryService) ListFeatured(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListFeaturedCategories(ctx)
}

// Questions returns a category's questions after an ownership check.
func (s *CategoryService) Questions(ctx context.Context, actor domain.Actor, id int64) ([]domain.Question, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.categories.ListQuestions(ctx, id)
}

func (s *CategoryService) SetActive(ctx context.Context, actor domain.Actor, id int64, active bool) (domain.Category, error) {
	cat, err := s.owned(ctx, actor, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.categories.SetCategoryActive(ctx, id, active); err != nil {
		return domain.Category{}, err
	}
	s.cache.Invalidate(ctx, cat.ConfigLinkID)
	cat.IsActive = active
	return cat, nil
}

func (s *CategoryService) SetFeatured(ctx context.Context, actor domain.Actor, id int64, featured bool) (domain.Category, error) {
	cat, err := s.owned(ctx, actor, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.categories.SetCategoryFeatured(ctx, id, featured); err != nil {
		return domain.Category{}, err
	}
	s.cache.Invalidate(ctx, cat.ConfigLinkID)
	cat.IsFeatured = featured
	return cat, nil
}

// Delete removes a category with everything hanging off it. Blob and counter
// cleanup run after the rows are gone and never fail the delete.
func (s *CategoryService) Delete(ctx context.Context, actor domain.Actor, id int64) (domain.DeleteReport, error) {
	cat, err := s.owned(ctx, actor, id)
	if err != nil {
		return domain.DeleteReport{}, err
	}
	images, err := s.categories.DeleteCategory(ctx, id)
	if err != nil {
		return domain.DeleteReport{}, err
	}
	s.cache.Invalidate(ctx, cat.ConfigLinkID)

	report := domain.DeleteReport{CategoryID: id, ImagesDeleted: len(images), CleanupFailures: []string{}}
	if err := s.votes.DeleteVotes(ctx, cat.ConfigLinkID); err != nil {
		s.logger.Error("vote cleanup failed", "configLinkId", cat.ConfigLinkID, "error", err)
		report.CleanupFailures = append(report.CleanupFailures, "vote counters")
	}
	for _, img := range images {
		if err := s.blobs.Delete(ctx, img.FolderName, img.ImageName); err != nil {
			s.logger.Error("blob cleanup failed", "container", img.FolderName, "name", img.ImageName, "error", err)
			report.CleanupFailures = append(report.CleanupFailures, img.ImageName)
		}
	}
	s.logger.Info("category deleted", "categoryId", id, "images", len(images), "failures", len(report.CleanupFailures))
	return report, nil
}

func (s *CategoryService) owned(ctx context.Context, actor domain.Actor, id int64) (domain.Category, error) {
	cat, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := requireOwner(actor, cat.UserID); err != nil {
		return domain.Category{}, err
	}
	return cat, nil
}
