package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"devexchange-service/internal/domain"
	"github.com/google/uuid"
)

// ImageService registers uploaded quiz images against a category.
type ImageService struct {
	categories CategoryRepository
	images     ImageRepository
	blobs      BlobStore
	cache      QuizCache
	logger     *slog.Logger
	now        func() time.Time
}

func NewImageService(categories CategoryRepository, images ImageRepository, blobs BlobStore, cache QuizCache, logger *slog.Logger) *ImageService {
	return &ImageService{
		categories: categories,
		images:     images,
		blobs:      blobs,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload stores every file of one request under a single group id. If any
// upload fails, the blobs already written for the request are removed and no
// rows are saved.
func (s *ImageService) Upload(ctx context.Context, actor domain.Actor, categoryID int64, files []domain.File) (domain.UploadBatch, error) {
	if len(files) == 0 {
		return domain.UploadBatch{}, domain.Invalid("at least one file is required")
	}
	cat, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return domain.UploadBatch{}, err
	}
	if err := requireOwner(actor, cat.UserID); err != nil {
		return domain.UploadBatch{}, err
	}

	groupID, err := s.images.NextGroupID(ctx)
	if err != nil {
		return domain.UploadBatch{}, fmt.Errorf("allocate group id: %w", err)
	}
	container := domain.ContainerName(cat.CategoryName)
	now := s.now().UTC()

	images := make([]domain.ImageUpload, 0, len(files))
	for _, f := range files {
		name := blobName(f.Name)
		url, err := s.blobs.Upload(ctx, container, name, f.ContentType, f.Body)
		if err != nil {
			s.rollbackBlobs(ctx, images)
			return domain.UploadBatch{}, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		images = append(images, domain.ImageUpload{
			ImageName:    name,
			FolderName:   container,
			ImagePath:    url,
			CreatedDate:  now,
			GroupID:      groupID,
			ConfigLinkID: cat.ConfigLinkID,
			UserID:       actor.UserID,
			IsActive:     true,
		})
	}

	saved, err := s.images.SaveImages(ctx, images)
	if err != nil {
		s.rollbackBlobs(ctx, images)
		return domain.UploadBatch{}, err
	}
	s.cache.Invalidate(ctx, cat.ConfigLinkID)
	s.logger.Info("images uploaded", "configLinkId", cat.ConfigLinkID, "groupId", groupID, "count", len(saved))
	return domain.UploadBatch{GroupID: groupID, Images: saved}, nil
}

func (s *ImageService) rollbackBlobs(ctx context.Context, images []domain.ImageUpload) {
	for _, img := range images {
		if err := s.blobs.Delete(ctx, img.FolderName, img.ImageName); err != nil {
			s.logger.Error("blob rollback failed", "container", img.FolderName, "name", img.ImageName, "error", err)
		}
	}
}

// blobName keeps the client's base name readable and prefixes it so two uploads
// of "cat.png" never overwrite each other.
func blobName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return uuid.NewString()[:8] + "-" + base
}

// List returns every image of a category, active or not.
func (s *ImageService) List(ctx context.Context, actor domain.Actor, categoryID int64) ([]domain.ImageUpload, error) {
	cat, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, cat.UserID); err != nil {
		return nil, err
	}
	return s.images.ListImagesByLink(ctx, cat.ConfigLinkID, false)
}

func (s *ImageService) SetActive(ctx context.Context, actor domain.Actor, imageID int64, active bool) (domain.ImageUpload, error) {
	img, err := s.ownedImage(ctx, actor, imageID)
	if err != nil {
		return domain.ImageUpload{}, err
	}
	if err := s.images.SetImageActive(ctx, imageID, active); err != nil {
		return domain.ImageUpload{}, err
	}
	s.cache.Invalidate(ctx, img.ConfigLinkID)
	img.IsActive = active
	return img, nil
}

// Delete removes the image row, then its blob on a best-effort basis.
func (s *ImageService) Delete(ctx context.Context, actor domain.Actor, imageID int64) error {
	img, err := s.ownedImage(ctx, actor, imageID)
	if err != nil {
		return err
	}
	if err := s.images.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, img.ConfigLinkID)
	if err := s.blobs.Delete(ctx, img.FolderName, img.ImageName); err != nil {
		s.logger.Error("blob cleanup failed", "container", img.FolderName, "name", img.ImageName, "error", err)
	}
	return nil
}

// Content returns the stored bytes of an active image.
func (s *ImageService) Content(ctx context.Context, imageID int64) (domain.ImageUpload, []byte, error) {
	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return domain.ImageUpload{}, nil, err
	}
	if !img.IsActive {
		return domain.ImageUpload{}, nil, domain.ErrImageNotFound
	}
	data, err := s.blobs.Download(ctx, img.FolderName, img.ImageName)
	if err != nil {
		return domain.ImageUpload{}, nil, err
	}
	return img, data, nil
}

func (s *ImageService) ownedImage(ctx context.Context, actor domain.Actor, imageID int64) (domain.ImageUpload, error) {
	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return domain.ImageUpload{}, err
	}
	if err := requireOwner(actor, img.UserID); err != nil {
		return domain.ImageUpload{}, err
	}
	return img, nil
}
