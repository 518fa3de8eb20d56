package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"devexchange-service/internal/domain"
	"github.com/uptrace/bun"
)

func (s *Store) HasRole(ctx context.Context, userID, role string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*roleRow)(nil)).Where("user_id = ? AND role = ?", userID, role).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

// GrantRole adds a role directly. Granting a held role is a no-op.
func (s *Store) GrantRole(ctx context.Context, userID, role string, at time.Time) error {
	return grantRole(ctx, s.db, userID, role, at)
}

func grantRole(ctx context.Context, db bun.IDB, userID, role string, at time.Time) error {
	row := roleRow{UserID: userID, Role: role, GrantedAt: at}
	if _, err := db.NewInsert().Model(&row).On("CONFLICT (user_id, role) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *Store) FindToken(ctx context.Context, userID, kind string) (domain.VerificationToken, bool, error) {
	var row tokenRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VerificationToken{}, false, nil
	}
	if err != nil {
		return domain.VerificationToken{}, false, fmt.Errorf("find token: %w", err)
	}
	return row.toDomain(), true, nil
}

func (s *Store) ReplaceToken(ctx context.Context, token domain.VerificationToken) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*tokenRow)(nil)).
			Where("user_id = ? AND kind = ?", token.UserID, token.Kind).
			Exec(ctx); err != nil {
			return fmt.Errorf("drop old tokens: %w", err)
		}
		row := tokenRow{
			Token:     token.Token,
			UserID:    token.UserID,
			Kind:      token.Kind,
			Email:     token.Email,
			CreatedAt: token.CreatedAt,
			ExpiresAt: token.ExpiresAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		return nil
	})
}

func (s *Store) ConsumeToken(ctx context.Context, raw string, now time.Time) (domain.VerificationToken, error) {
	var consumed domain.VerificationToken
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row tokenRow
		if err := tx.NewSelect().Model(&row).Where("token = ?", raw).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, domain.ErrInvalidToken)
		}
		consumed = row.toDomain()
		if !consumed.Valid(now) {
			return domain.ErrInvalidToken
		}
		if _, err := tx.NewDelete().Model((*tokenRow)(nil)).Where("token = ?", raw).Exec(ctx); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		if err := grantRole(ctx, tx, row.UserID, row.Kind, now); err != nil {
			return err
		}
		consumed.VerifiedAt = &now
		return nil
	})
	if err != nil {
		return domain.VerificationToken{}, err
	}
	return consumed, nil
}

func (s *Store) SaveWebsite(ctx context.Context, site domain.WebsiteConnection) (domain.WebsiteConnection, error) {
	row := websiteRow{
		Title:        site.Title,
		Description:  site.Description,
		WebsiteURL:   site.WebsiteURL,
		BannerName:   site.BannerName,
		BannerPath:   site.BannerPath,
		UserID:       site.UserID,
		Email:        site.Email,
		Status:       string(site.Status),
		CreatedDate:  site.CreatedDate,
		ApprovedDate: site.ApprovedDate,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.WebsiteConnection{}, fmt.Errorf("insert website: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetWebsite(ctx context.Context, id int64) (domain.WebsiteConnection, error) {
	var row websiteRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.WebsiteConnection{}, notFound(err, domain.ErrWebsiteNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListWebsites(ctx context.Context, status domain.WebsiteStatus) ([]domain.WebsiteConnection, error) {
	var rows []websiteRow
	if err := s.db.NewSelect().Model(&rows).Where("status = ?", string(status)).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	out := make([]domain.WebsiteConnection, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) ApproveWebsite(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.NewUpdate().Model((*websiteRow)(nil)).
		Set("status = ?", string(domain.WebsiteApproved)).
		Set("approved_date = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return affected(res, err, domain.ErrWebsiteNotFound)
}

func (s *Store) DeleteWebsite(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*websiteRow)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrWebsiteNotFound)
}
