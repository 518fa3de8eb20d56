package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"devexchange-service/internal/app"
	"devexchange-service/internal/domain"
)

func TestCreateFullCategoryRequiresRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inputs := []app.QuestionInput{{QuestionKey: "k", QuestionText: "t", Options: []string{"a"}}}

	if _, err := f.categories.CreateFullCategory(ctx, domain.Actor{}, "Birds", inputs); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous: expected unauthorized, got %v", err)
	}
	if _, err := f.categories.CreateFullCategory(ctx, domain.Actor{UserID: "u2"}, "Birds", inputs); !errors.Is(err, domain.ErrRoleRequired) {
		t.Fatalf("no role: expected role required, got %v", err)
	}
	if _, err := f.categories.CreateFullCategory(ctx, domain.Actor{UserID: "root", Admin: true}, "Birds", inputs); err != nil {
		t.Fatalf("admin bypasses role: %v", err)
	}
}

func TestCreateFullCategoryValidatesInput(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", domain.RoleClassificationQuiz)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u1"}

	cases := map[string][]app.QuestionInput{
		"no questions": nil,
		"no options":   {{QuestionKey: "k", QuestionText: "t", Options: []string{" "}}},
		"no key":       {{QuestionText: "t", Options: []string{"a"}}},
	}
	for name, inputs := range cases {
		if _, err := f.categories.CreateFullCategory(ctx, actor, "Birds", inputs); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	_, err := f.categories.CreateFullCategory(ctx, actor, "Birds", []app.QuestionInput{
		{QuestionKey: "k", QuestionText: "t", Options: []string{"a"}},
		{QuestionKey: "k", QuestionText: "t2", Options: []string{"b"}},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Duplicates) != 1 || verr.Duplicates[0] != "k" {
		t.Fatalf("expected in-batch duplicate k, got %v", err)
	}
	if cats, _ := f.categories.ListOwn(ctx, actor); len(cats) != 0 {
		t.Fatalf("rejected batch must not create a category, got %+v", cats)
	}
}

func TestCreateFullCategoryReusesAndRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	tree, _ := f.birds(t)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u1"}

	_, err := f.categories.CreateFullCategory(ctx, actor, "Birds", []app.QuestionInput{
		{QuestionKey: "habitat", QuestionText: "Where?", Options: []string{"Forest"}},
		{QuestionKey: "color", QuestionText: "Again?", Options: []string{"Green"}},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Duplicates) != 1 || verr.Duplicates[0] != "color" {
		t.Fatalf("expected duplicate color, got %v", err)
	}
	questions, err := f.categories.Questions(ctx, actor, tree.Category.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("rejected batch must insert nothing, got %d questions", len(questions))
	}

	extended, err := f.categories.CreateFullCategory(ctx, actor, "Birds", []app.QuestionInput{
		{QuestionKey: "habitat", QuestionText: "Where?", Options: []string{"Forest"}},
	})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if extended.Created || extended.Category.ConfigLinkID != tree.Category.ConfigLinkID {
		t.Fatalf("expected reuse of Birds, got %+v", extended.Category)
	}
}

func TestQuestionsRequireOwnership(t *testing.T) {
	f := newFixture(t)
	tree, _ := f.birds(t)
	if _, err := f.categories.Questions(context.Background(), domain.Actor{UserID: "u2"}, tree.Category.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteCategoryIsBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, "u1", domain.RoleClassificationQuiz)
	blobs := &failingBlobs{BlobStore: f.blobs}
	categories := app.NewCategoryService(f.store, f.votes, f.store, blobs, f.cache, f.logger)
	images := app.NewImageService(f.store, f.store, blobs, f.cache, f.logger)
	owner := domain.Actor{UserID: "u1"}

	tree, err := categories.CreateFullCategory(ctx, owner, "Sea Birds", []app.QuestionInput{
		{QuestionKey: "color", QuestionText: "What color?", Options: []string{"Red"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	batch, err := images.Upload(ctx, owner, tree.Category.ID, []domain.File{
		{Name: "a.png", Body: bytes.NewReader([]byte("a"))},
		{Name: "b.png", Body: bytes.NewReader([]byte("b"))},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if batch.Images[0].FolderName != "sea-birds" || batch.Images[0].GroupID != batch.Images[1].GroupID {
		t.Fatalf("unexpected batch %+v", batch)
	}
	q := tree.Questions[0]
	if _, err := f.answers.SubmitImageAnswers(ctx, "s1", domain.AnswerSubmission{
		ImageName: batch.Images[0].ImageName, CategoryID: tree.Category.ID,
		Answers: []domain.Answer{{QuestionID: q.ID, OptionID: q.Options[0].ID}},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	blobs.failDelete = true
	report, err := categories.Delete(ctx, owner, tree.Category.ID)
	if err != nil {
		t.Fatalf("delete must not fail on blob errors: %v", err)
	}
	if report.ImagesDeleted != 2 || len(report.CleanupFailures) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := f.store.GetCategory(ctx, tree.Category.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("category rows must be gone, got %v", err)
	}
	if votes, _ := f.votes.ListVotes(ctx, tree.Category.ConfigLinkID); len(votes) != 0 {
		t.Fatalf("expected vote counters removed, got %+v", votes)
	}
}

func TestDeleteCategoryRequiresOwner(t *testing.T) {
	f := newFixture(t)
	tree, _ := f.birds(t)
	ctx := context.Background()
	if _, err := f.categories.Delete(ctx, domain.Actor{UserID: "u2"}, tree.Category.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := f.categories.Delete(ctx, domain.Actor{UserID: "root", Admin: true}, tree.Category.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
