package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"devexchange-service/internal/app"
	"devexchange-service/internal/domain"
)

func TestCreateQuizServesActiveImagesOnly(t *testing.T) {
	f := newFixture(t)
	tree, first := f.birds(t)
	ctx := context.Background()
	owner := domain.Actor{UserID: "u1"}

	batch, err := f.images.Upload(ctx, owner, tree.Category.ID, []domain.File{{Name: "b2.png", Body: bytes.NewReader([]byte("x"))}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if batch.GroupID == first.GroupID {
		t.Fatalf("each upload request gets its own group id")
	}

	quiz, err := f.quizzes.CreateQuiz(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(quiz.Images) != 2 || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if quiz.Questions[0].QuestionKey != "color" || quiz.Questions[1].QuestionKey != "size" {
		t.Fatalf("questions must keep insertion order, got %+v", quiz.Questions)
	}

	if _, err := f.images.SetActive(ctx, owner, first.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	quiz, err = f.quizzes.CreateQuiz(ctx, tree.Category.ConfigLinkID)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if len(quiz.Images) != 1 || quiz.Images[0].ID != batch.Images[0].ID {
		t.Fatalf("expected only the active image after invalidation, got %+v", quiz.Images)
	}
}

func TestCreateQuizUnknownOrInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.quizzes.CreateQuiz(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	tree, _ := f.birds(t)
	if _, err := f.categories.SetActive(ctx, domain.Actor{UserID: "u1"}, tree.Category.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.quizzes.CreateQuiz(ctx, tree.Category.ConfigLinkID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("inactive category: expected not found, got %v", err)
	}
}

func TestUploadRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	tree, _ := f.birds(t)
	ctx := context.Background()
	blobs := &failingBlobs{BlobStore: f.blobs, failUploadAfter: 1}
	images := app.NewImageService(f.store, f.store, blobs, f.cache, f.logger)

	_, err := images.Upload(ctx, domain.Actor{UserID: "u1"}, tree.Category.ID, []domain.File{
		{Name: "ok.png", Body: bytes.NewReader([]byte("a"))},
		{Name: "fail.png", Body: bytes.NewReader([]byte("b"))},
	})
	if err == nil {
		t.Fatalf("expected upload failure")
	}
	list, err := f.images.List(ctx, domain.Actor{UserID: "u1"}, tree.Category.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("failed request must not save rows, got %d images", len(list))
	}
}

func TestUploadRequiresOwnerAndFiles(t *testing.T) {
	f := newFixture(t)
	tree, _ := f.birds(t)
	ctx := context.Background()
	files := []domain.File{{Name: "x.png", Body: bytes.NewReader(nil)}}
	if _, err := f.images.Upload(ctx, domain.Actor{UserID: "u2"}, tree.Category.ID, files); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.images.Upload(ctx, domain.Actor{UserID: "u1"}, tree.Category.ID, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, err := f.images.Upload(ctx, domain.Actor{UserID: "u1"}, 999, files); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
}

func TestImageContent(t *testing.T) {
	f := newFixture(t)
	_, img := f.birds(t)
	ctx := context.Background()

	_, data, err := f.images.Content(ctx, img.ID)
	if err != nil || string(data) != "png" {
		t.Fatalf("content: %q %v", data, err)
	}
	if _, err := f.images.SetActive(ctx, domain.Actor{UserID: "u1"}, img.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := f.images.Content(ctx, img.ID); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("inactive image: expected not found, got %v", err)
	}
	if err := f.images.Delete(ctx, domain.Actor{UserID: "u1"}, img.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.blobs.Exists(img.FolderName, img.ImageName) {
		t.Fatalf("expected blob removed")
	}
}
