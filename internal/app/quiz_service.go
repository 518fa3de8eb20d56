package app

import (
	"context"

	"devexchange-service/internal/domain"
)

// QuizAssembler builds quiz payloads straight from the repositories. It is the
// loader behind the quiz caches.
type QuizAssembler struct {
	categories CategoryRepository
	images     ImageRepository
}

func NewQuizAssembler(categories CategoryRepository, images ImageRepository) *QuizAssembler {
	return &QuizAssembler{categories: categories, images: images}
}

// LoadQuiz returns the category, its active images and its questions in
// insertion order.
func (a *QuizAssembler) LoadQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error) {
	cat, err := a.categories.GetCategoryByLink(ctx, configLinkID)
	if err != nil {
		return domain.Quiz{}, err
	}
	images, err := a.images.ListImagesByLink(ctx, configLinkID, true)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions, err := a.categories.ListQuestions(ctx, cat.ID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if images == nil {
		images = []domain.ImageUpload{}
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Quiz{Category: cat, Images: images, Questions: questions}, nil
}

// QuizService serves quiz payloads to quiz takers.
type QuizService struct {
	quizzes QuizCache
}

func NewQuizService(quizzes QuizCache) *QuizService {
	return &QuizService{quizzes: quizzes}
}

// CreateQuiz returns the quiz for a link id. Inactive categories are hidden.
func (s *QuizService) CreateQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, configLinkID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.Category.IsActive {
		return domain.Quiz{}, domain.ErrCategoryNotFound
	}
	return quiz, nil
}
