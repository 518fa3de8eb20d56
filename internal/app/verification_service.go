package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"devexchange-service/internal/domain"
)

const tokenBytes = 32

// VerificationConfig controls token lifetime and where verify links point.
type VerificationConfig struct {
	TTL        time.Duration
	BaseURL    string
	AdminEmail string
}

// VerificationService issues and consumes role-granting email tokens.
type VerificationService struct {
	repo     VerificationRepository
	notifier Notifier
	cfg      VerificationConfig
	logger   *slog.Logger
	now      func() time.Time
	random   io.Reader
}

func NewVerificationService(repo VerificationRepository, notifier Notifier, cfg VerificationConfig, logger *slog.Logger) *VerificationService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &VerificationService{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// WithClock replaces the time source; used by tests.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	s.now = now
	return s
}

// Request asks for the role named by kind. A still valid token is left in
// place; anything older is superseded by a fresh token.
func (s *VerificationService) Request(ctx context.Context, actor domain.Actor, kind string) (domain.VerificationStatus, error) {
	if err := requireUser(actor); err != nil {
		return domain.VerificationStatus{}, err
	}
	if !domain.ValidRole(kind) {
		return domain.VerificationStatus{}, domain.Invalid("unknown verification kind " + kind)
	}
	granted, err := s.repo.HasRole(ctx, actor.UserID, kind)
	if err != nil {
		return domain.VerificationStatus{}, fmt.Errorf("check role: %w", err)
	}
	if granted {
		return domain.VerificationStatus{}, domain.ErrRoleAlreadyGranted
	}

	now := s.now().UTC()
	existing, ok, err := s.repo.FindToken(ctx, actor.UserID, kind)
	if err != nil {
		return domain.VerificationStatus{}, fmt.Errorf("find token: %w", err)
	}
	if ok && existing.Valid(now) {
		return domain.VerificationStatus{Kind: kind, Status: domain.VerificationPending, ExpiresAt: existing.ExpiresAt}, nil
	}

	raw, err := s.newToken()
	if err != nil {
		return domain.VerificationStatus{}, err
	}
	token := domain.VerificationToken{
		UserID:    actor.UserID,
		Kind:      kind,
		Email:     actor.Email,
		Token:     raw,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.repo.ReplaceToken(ctx, token); err != nil {
		return domain.VerificationStatus{}, fmt.Errorf("store token: %w", err)
	}

	to := s.cfg.AdminEmail
	if to == "" {
		to = actor.Email
	}
	if to != "" {
		s.notifier.Notify(domain.Email{
			To:      to,
			Subject: "DevExchange access request: " + kind,
			HTML:    s.requestEmail(token),
		})
	}
	s.logger.Info("verification requested", "userId", actor.UserID, "kind", kind)
	return domain.VerificationStatus{Kind: kind, Status: domain.VerificationSent, ExpiresAt: token.ExpiresAt}, nil
}

// Verify consumes a token once and grants its role.
func (s *VerificationService) Verify(ctx context.Context, raw string) (domain.VerificationToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.VerificationToken{}, domain.ErrInvalidToken
	}
	token, err := s.repo.ConsumeToken(ctx, raw, s.now().UTC())
	if err != nil {
		return domain.VerificationToken{}, err
	}
	if token.Email != "" {
		s.notifier.Notify(domain.Email{
			To:      token.Email,
			Subject: "DevExchange access granted",
			HTML:    "<p>Your " + html.EscapeString(token.Kind) + " access has been approved.</p>",
		})
	}
	s.logger.Info("verification consumed", "userId", token.UserID, "kind", token.Kind)
	return token, nil
}

func (s *VerificationService) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *VerificationService) requestEmail(token domain.VerificationToken) string {
	link := strings.TrimRight(s.cfg.BaseURL, "/") + "/verification/verify?token=" + url.QueryEscape(token.Token)
	who := token.UserID
	if token.Email != "" {
		who = token.Email
	}
	return fmt.Sprintf(
		`<p>%s requested %s access.</p><p><a href="%s">Approve request</a></p><p>The link expires at %s.</p>`,
		html.EscapeString(who),
		html.EscapeString(token.Kind),
		html.EscapeString(link),
		token.ExpiresAt.Format(time.RFC1123),
	)
}
