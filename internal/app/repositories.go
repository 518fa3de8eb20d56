package app

import (
	"context"
	"io"
	"time"

	"devexchange-service/internal/domain"
)

// CategoryRepository stores categories with their questions and options.
type CategoryRepository interface {
	// CreateCategoryTree reuses the category with the same (name, user) or creates
	// one with a freshly allocated link id, then stores questions and options. A
	// batch with any key already present in the category is rejected whole with a
	// *domain.ValidationError listing the duplicates.
	CreateCategoryTree(ctx context.Context, category domain.Category, questions []domain.Question) (domain.CategoryTree, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	GetCategoryByLink(ctx context.Context, configLinkID int64) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListCategoriesByUser(ctx context.Context, userID string) ([]domain.Category, error)
	ListFeaturedCategories(ctx context.Context) ([]domain.Category, error)
	ListQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error)
	SetCategoryActive(ctx context.Context, id int64, active bool) error
	SetCategoryFeatured(ctx context.Context, id int64, featured bool) error
	// DeleteCategory removes the category, its questions, options and image rows,
	// returning the removed images so their blobs can be cleaned up.
	DeleteCategory(ctx context.Context, id int64) ([]domain.ImageUpload, error)
}

// ImageRepository stores image upload records.
type ImageRepository interface {
	// NextGroupID allocates a new upload group id. Ids are never reused.
	NextGroupID(ctx context.Context) (int64, error)
	SaveImages(ctx context.Context, images []domain.ImageUpload) ([]domain.ImageUpload, error)
	GetImage(ctx context.Context, id int64) (domain.ImageUpload, error)
	FindImageByName(ctx context.Context, configLinkID int64, imageName string) (domain.ImageUpload, error)
	ListImagesByLink(ctx context.Context, configLinkID int64, activeOnly bool) ([]domain.ImageUpload, error)
	SetImageActive(ctx context.Context, id int64, active bool) error
	DeleteImage(ctx context.Context, id int64) error
}

// VoteRepository holds the per (link, image, question, option) counters.
type VoteRepository interface {
	// IncrementVotes adds one to every key, atomically for the whole slice.
	IncrementVotes(ctx context.Context, keys []domain.VoteKey) error
	// ListVotes returns the counters of one link id, or of all when configLinkID is 0.
	ListVotes(ctx context.Context, configLinkID int64) ([]domain.VoteCount, error)
	DeleteVotes(ctx context.Context, configLinkID int64) error
}

// RespondentTracker remembers when each respondent last answered in a category.
type RespondentTracker interface {
	Touch(ctx context.Context, configLinkID int64, respondentID string, at time.Time) error
	// CountSince counts respondents seen at or after since. A zero since counts all.
	CountSince(ctx context.Context, configLinkID int64, since time.Time) (int64, error)
}

// QuizCache serves assembled quizzes.
type QuizCache interface {
	GetQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error)
	Invalidate(ctx context.Context, configLinkID int64)
}

// VerificationRepository stores verification tokens and granted roles.
type VerificationRepository interface {
	RoleRepository
	// FindToken returns the newest token for (userID, kind).
	FindToken(ctx context.Context, userID, kind string) (domain.VerificationToken, bool, error)
	// ReplaceToken drops existing tokens for (userID, kind) and stores token.
	ReplaceToken(ctx context.Context, token domain.VerificationToken) error
	// ConsumeToken deletes a token valid at now and grants its role in one step.
	// Unknown and expired tokens yield domain.ErrInvalidToken.
	ConsumeToken(ctx context.Context, token string, now time.Time) (domain.VerificationToken, error)
}

// RoleRepository answers role membership questions.
type RoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// WebsiteRepository stores showcase entries.
type WebsiteRepository interface {
	SaveWebsite(ctx context.Context, site domain.WebsiteConnection) (domain.WebsiteConnection, error)
	GetWebsite(ctx context.Context, id int64) (domain.WebsiteConnection, error)
	ListWebsites(ctx context.Context, status domain.WebsiteStatus) ([]domain.WebsiteConnection, error)
	ApproveWebsite(ctx context.Context, id int64, at time.Time) error
	DeleteWebsite(ctx context.Context, id int64) error
}

// BlobStore is a key-value byte store with public read URLs.
type BlobStore interface {
	Upload(ctx context.Context, container, name, contentType string, body io.Reader) (string, error)
	Download(ctx context.Context, container, name string) ([]byte, error)
	Delete(ctx context.Context, container, name string) error
}

// Notifier delivers emails without blocking the caller.
type Notifier interface {
	Notify(msg domain.Email)
}
