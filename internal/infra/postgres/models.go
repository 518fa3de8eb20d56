package postgres

import (
	"time"

	"devexchange-service/internal/domain"
	"github.com/uptrace/bun"
)

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID           int64     `bun:"id,pk,autoincrement"`
	CategoryName string    `bun:"category_name,notnull"`
	ConfigLinkID int64     `bun:"config_link_id,notnull"`
	UserID       string    `bun:"user_id,notnull"`
	CreatedDate  time.Time `bun:"created_date,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	IsFeatured   bool      `bun:"is_featured,notnull"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:           r.ID,
		CategoryName: r.CategoryName,
		ConfigLinkID: r.ConfigLinkID,
		UserID:       r.UserID,
		CreatedDate:  r.CreatedDate.UTC(),
		IsActive:     r.IsActive,
		IsFeatured:   r.IsFeatured,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64  `bun:"id,pk,autoincrement"`
	QuestionKey  string `bun:"question_key,notnull"`
	QuestionText string `bun:"question_text,notnull"`
	CategoryID   int64  `bun:"category_id,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:options,alias:o"`

	ID         int64  `bun:"id,pk,autoincrement"`
	OptionText string `bun:"option_text,notnull"`
	QuestionID int64  `bun:"question_id,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

type imageRow struct {
	bun.BaseModel `bun:"table:image_uploads,alias:i"`

	ID           int64     `bun:"id,pk,autoincrement"`
	ImageName    string    `bun:"image_name,notnull"`
	FolderName   string    `bun:"folder_name,notnull"`
	ImagePath    string    `bun:"image_path,notnull"`
	CreatedDate  time.Time `bun:"created_date,notnull"`
	GroupID      int64     `bun:"group_id,notnull"`
	ConfigLinkID int64     `bun:"config_link_id,notnull"`
	UserID       string    `bun:"user_id,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
}

func imageRowFrom(img domain.ImageUpload) imageRow {
	return imageRow{
		ImageName:    img.ImageName,
		FolderName:   img.FolderName,
		ImagePath:    img.ImagePath,
		CreatedDate:  img.CreatedDate,
		GroupID:      img.GroupID,
		ConfigLinkID: img.ConfigLinkID,
		UserID:       img.UserID,
		IsActive:     img.IsActive,
	}
}

func (r imageRow) toDomain() domain.ImageUpload {
	return domain.ImageUpload{
		ID:           r.ID,
		ImageName:    r.ImageName,
		FolderName:   r.FolderName,
		ImagePath:    r.ImagePath,
		CreatedDate:  r.CreatedDate.UTC(),
		GroupID:      r.GroupID,
		ConfigLinkID: r.ConfigLinkID,
		UserID:       r.UserID,
		IsActive:     r.IsActive,
	}
}

type tokenRow struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:t"`

	Token      string     `bun:"token,pk"`
	UserID     string     `bun:"user_id,notnull"`
	Kind       string     `bun:"kind,notnull"`
	Email      string     `bun:"email,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	ExpiresAt  time.Time  `bun:"expires_at,notnull"`
	VerifiedAt *time.Time `bun:"verified_at"`
}

func (r tokenRow) toDomain() domain.VerificationToken {
	return domain.VerificationToken{
		UserID:     r.UserID,
		Kind:       r.Kind,
		Email:      r.Email,
		Token:      r.Token,
		CreatedAt:  r.CreatedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
		VerifiedAt: r.VerifiedAt,
	}
}

type roleRow struct {
	bun.BaseModel `bun:"table:user_roles,alias:r"`

	UserID    string    `bun:"user_id,pk"`
	Role      string    `bun:"role,pk"`
	GrantedAt time.Time `bun:"granted_at,notnull"`
}

type websiteRow struct {
	bun.BaseModel `bun:"table:website_connections,alias:w"`

	ID           int64      `bun:"id,pk,autoincrement"`
	Title        string     `bun:"title,notnull"`
	Description  string     `bun:"description,notnull"`
	WebsiteURL   string     `bun:"website_url,notnull"`
	BannerName   string     `bun:"banner_name,notnull"`
	BannerPath   string     `bun:"banner_path,notnull"`
	UserID       string     `bun:"user_id,notnull"`
	Email        string     `bun:"email,notnull"`
	Status       string     `bun:"status,notnull"`
	CreatedDate  time.Time  `bun:"created_date,notnull"`
	ApprovedDate *time.Time `bun:"approved_date"`
}

func (r websiteRow) toDomain() domain.WebsiteConnection {
	return domain.WebsiteConnection{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		WebsiteURL:   r.WebsiteURL,
		BannerName:   r.BannerName,
		BannerPath:   r.BannerPath,
		UserID:       r.UserID,
		Email:        r.Email,
		Status:       domain.WebsiteStatus(r.Status),
		CreatedDate:  r.CreatedDate.UTC(),
		ApprovedDate: r.ApprovedDate,
	}
}
