package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"devexchange-service/internal/domain"
)

func TestSubmitImageAnswersIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	tree, img := f.birds(t)
	ctx := context.Background()
	color, size := tree.Questions[0], tree.Questions[1]

	sub := domain.AnswerSubmission{
		ImageName:  img.ImageName,
		CategoryID: tree.Category.ID,
		Answers: []domain.Answer{
			{QuestionID: color.ID, OptionID: option(t, color, "Red")},
			{QuestionID: size.ID, OptionID: option(t, size, "Small")},
		},
	}
	for i := 0; i < 2; i++ {
		res, err := f.answers.SubmitImageAnswers(ctx, "s1", sub)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.Recorded != 2 || !res.IsImageComplete {
			t.Fatalf("unexpected result %+v", res)
		}
	}

	votes, err := f.votes.ListVotes(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 counters, got %+v", votes)
	}
	for _, v := range votes {
		if v.Count != 2 {
			t.Fatalf("repeated submission must count twice, got %+v", v)
		}
	}
	if n, _ := f.tracker.CountSince(ctx, tree.Category.ConfigLinkID, fixedNow); n != 1 {
		t.Fatalf("expected one respondent, got %d", n)
	}
}

func TestSubmitImageAnswersPartial(t *testing.T) {
	f := newFixture(t)
	tree, img := f.birds(t)
	color := tree.Questions[0]

	res, err := f.answers.SubmitImageAnswers(context.Background(), "", domain.AnswerSubmission{
		ImageName:  img.ImageName,
		CategoryID: tree.Category.ID,
		Answers:    []domain.Answer{{QuestionID: color.ID, OptionID: option(t, color, "Blue")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Recorded != 1 || res.IsImageComplete {
		t.Fatalf("expected an incomplete image, got %+v", res)
	}
	if n, _ := f.tracker.CountSince(context.Background(), tree.Category.ConfigLinkID, fixedNow); n != 0 {
		t.Fatalf("anonymous submissions without a session are not tracked, got %d", n)
	}
}

func TestSubmitImageAnswersRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	tree, img := f.birds(t)
	ctx := context.Background()
	color, size := tree.Questions[0], tree.Questions[1]
	red := option(t, color, "Red")

	cases := []struct {
		name    string
		sub     domain.AnswerSubmission
		message string
	}{
		{
			name:    "foreign option",
			sub:     domain.AnswerSubmission{ImageName: img.ImageName, CategoryID: tree.Category.ID, Answers: []domain.Answer{{QuestionID: size.ID, OptionID: red}}},
			message: "does not belong to question",
		},
		{
			name:    "question twice",
			sub:     domain.AnswerSubmission{ImageName: img.ImageName, CategoryID: tree.Category.ID, Answers: []domain.Answer{{QuestionID: color.ID, OptionID: red}, {QuestionID: color.ID, OptionID: red}}},
			message: "answered more than once",
		},
		{
			name:    "unknown question",
			sub:     domain.AnswerSubmission{ImageName: img.ImageName, CategoryID: tree.Category.ID, Answers: []domain.Answer{{QuestionID: 9999, OptionID: red}}},
			message: "does not belong to this category",
		},
		{
			name:    "no answers",
			sub:     domain.AnswerSubmission{ImageName: img.ImageName, CategoryID: tree.Category.ID},
			message: "answers are required",
		},
	}
	for _, tc := range cases {
		_, err := f.answers.SubmitImageAnswers(ctx, "s1", tc.sub)
		if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), tc.message) {
			t.Fatalf("%s: expected validation error containing %q, got %v", tc.name, tc.message, err)
		}
	}
	if votes, _ := f.votes.ListVotes(ctx, tree.Category.ConfigLinkID); len(votes) != 0 {
		t.Fatalf("rejected submissions must not count, got %+v", votes)
	}
}

func TestSubmitImageAnswersInactiveTargets(t *testing.T) {
	f := newFixture(t)
	tree, img := f.birds(t)
	ctx := context.Background()
	owner := domain.Actor{UserID: "u1"}
	color := tree.Questions[0]
	sub := domain.AnswerSubmission{
		ImageName:  img.ImageName,
		CategoryID: tree.Category.ID,
		Answers:    []domain.Answer{{QuestionID: color.ID, OptionID: option(t, color, "Red")}},
	}

	if _, err := f.images.SetActive(ctx, owner, img.ID, false); err != nil {
		t.Fatalf("deactivate image: %v", err)
	}
	if _, err := f.answers.SubmitImageAnswers(ctx, "s1", sub); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("inactive image: expected not found, got %v", err)
	}

	missing := sub
	missing.ImageName = "nope.png"
	if _, err := f.answers.SubmitImageAnswers(ctx, "s1", missing); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("unknown image: expected not found, got %v", err)
	}

	if _, err := f.categories.SetActive(ctx, owner, tree.Category.ID, false); err != nil {
		t.Fatalf("deactivate category: %v", err)
	}
	if _, err := f.answers.SubmitImageAnswers(ctx, "s1", sub); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("inactive category: expected not found, got %v", err)
	}
}
