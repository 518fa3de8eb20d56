package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devexchange-service/internal/domain"
)

// StatisticsPublisher is told about every accepted submission.
type StatisticsPublisher interface {
	Publish(ctx context.Context, configLinkID int64)
}

// AnswerService records answer submissions into the vote counters.
type AnswerService struct {
	categories CategoryRepository
	images     ImageRepository
	votes      VoteRepository
	tracker    RespondentTracker
	publisher  StatisticsPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewAnswerService(categories CategoryRepository, images ImageRepository, votes VoteRepository, tracker RespondentTracker, publisher StatisticsPublisher, logger *slog.Logger) *AnswerService {
	return &AnswerService{
		categories: categories,
		images:     images,
		votes:      votes,
		tracker:    tracker,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AnswerService) WithClock(now func() time.Time) *AnswerService {
	s.now = now
	return s
}

// SubmitImageAnswers adds one vote per answer. Submissions are not
// de-duplicated: sending the same answers again counts them again.
func (s *AnswerService) SubmitImageAnswers(ctx context.Context, respondentID string, sub domain.AnswerSubmission) (domain.SubmissionResult, error) {
	sub.ImageName = strings.TrimSpace(sub.ImageName)
	if sub.ImageName == "" {
		return domain.SubmissionResult{}, domain.Invalid("imageName is required")
	}
	if len(sub.Answers) == 0 {
		return domain.SubmissionResult{}, domain.Invalid("answers are required")
	}

	cat, err := s.categories.GetCategory(ctx, sub.CategoryID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if !cat.IsActive {
		return domain.SubmissionResult{}, domain.ErrCategoryNotFound
	}
	img, err := s.images.FindImageByName(ctx, cat.ConfigLinkID, sub.ImageName)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if !img.IsActive {
		return domain.SubmissionResult{}, domain.ErrImageNotFound
	}
	questions, err := s.categories.ListQuestions(ctx, cat.ID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	keys, err := voteKeys(cat.ConfigLinkID, img.ImageName, questions, sub.Answers)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if err := s.votes.IncrementVotes(ctx, keys); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("increment votes: %w", err)
	}

	if respondentID != "" {
		if err := s.tracker.Touch(ctx, cat.ConfigLinkID, respondentID, s.now().UTC()); err != nil {
			s.logger.Warn("respondent tracking failed", "configLinkId", cat.ConfigLinkID, "error", err)
		}
	}
	s.publisher.Publish(ctx, cat.ConfigLinkID)

	return domain.SubmissionResult{
		ImageName:       img.ImageName,
		Recorded:        len(keys),
		IsImageComplete: len(keys) == len(questions),
	}, nil
}

// voteKeys checks every answer against the category's questions. A question
// may be answered at most once per submission.
func voteKeys(configLinkID int64, imageName string, questions []domain.Question, answers []domain.Answer) ([]domain.VoteKey, error) {
	byID := make(map[int64]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	answered := make(map[int64]struct{}, len(answers))
	keys := make([]domain.VoteKey, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, domain.Invalid(fmt.Sprintf("question %d does not belong to this category", a.QuestionID))
		}
		if _, dup := answered[a.QuestionID]; dup {
			return nil, domain.Invalid(fmt.Sprintf("question %d answered more than once", a.QuestionID))
		}
		if !hasOption(q, a.OptionID) {
			return nil, domain.Invalid(fmt.Sprintf("option %d does not belong to question %d", a.OptionID, a.QuestionID))
		}
		answered[a.QuestionID] = struct{}{}
		keys = append(keys, domain.VoteKey{
			ConfigLinkID: configLinkID,
			ImageName:    imageName,
			QuestionID:   a.QuestionID,
			OptionID:     a.OptionID,
		})
	}
	return keys, nil
}

func hasOption(q domain.Question, optionID int64) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
