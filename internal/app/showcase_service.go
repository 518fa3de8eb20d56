package app

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"devexchange-service/internal/domain"
)

// BannerContainer is the blob folder holding showcase banners.
const BannerContainer = "website-banners"

// ShowcaseService moderates student project submissions.
type ShowcaseService struct {
	websites   WebsiteRepository
	roles      RoleRepository
	blobs      BlobStore
	notifier   Notifier
	adminEmail string
	logger     *slog.Logger
	now        func() time.Time
}

func NewShowcaseService(websites WebsiteRepository, roles RoleRepository, blobs BlobStore, notifier Notifier, adminEmail string, logger *slog.Logger) *ShowcaseService {
	return &ShowcaseService{
		websites:   websites,
		roles:      roles,
		blobs:      blobs,
		notifier:   notifier,
		adminEmail: adminEmail,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit uploads the banner and stores the entry as pending.
func (s *ShowcaseService) Submit(ctx context.Context, actor domain.Actor, sub domain.WebsiteSubmission) (domain.WebsiteConnection, error) {
	if err := requireRole(ctx, s.roles, actor, domain.RoleWebConnect); err != nil {
		return domain.WebsiteConnection{}, err
	}
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		return domain.WebsiteConnection{}, domain.Invalid("title is required")
	}
	site, err := url.ParseRequestURI(strings.TrimSpace(sub.WebsiteURL))
	if err != nil || (site.Scheme != "http" && site.Scheme != "https") || site.Host == "" {
		return domain.WebsiteConnection{}, domain.Invalid("websiteUrl must be an http(s) URL")
	}
	if sub.Banner.Body == nil {
		return domain.WebsiteConnection{}, domain.Invalid("banner image is required")
	}

	name := blobName(sub.Banner.Name)
	path, err := s.blobs.Upload(ctx, BannerContainer, name, sub.Banner.ContentType, sub.Banner.Body)
	if err != nil {
		return domain.WebsiteConnection{}, fmt.Errorf("upload banner: %w", err)
	}
	saved, err := s.websites.SaveWebsite(ctx, domain.WebsiteConnection{
		Title:       title,
		Description: strings.TrimSpace(sub.Description),
		WebsiteURL:  site.String(),
		BannerName:  name,
		BannerPath:  path,
		UserID:      actor.UserID,
		Email:       actor.Email,
		Status:      domain.WebsitePending,
		CreatedDate: s.now().UTC(),
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, BannerContainer, name); derr != nil {
			s.logger.Error("banner rollback failed", "name", name, "error", derr)
		}
		return domain.WebsiteConnection{}, err
	}

	if s.adminEmail != "" {
		s.notifier.Notify(domain.Email{
			To:      s.adminEmail,
			Subject: "New showcase submission: " + saved.Title,
			HTML:    fmt.Sprintf(`<p>%s submitted <a href="%s">%s</a> for review.</p>`, html.EscapeString(submitter(saved)), html.EscapeString(saved.WebsiteURL), html.EscapeString(saved.Title)),
		})
	}
	s.logger.Info("website submitted", "id", saved.ID, "userId", saved.UserID)
	return saved, nil
}

// ListApproved returns the public showcase.
func (s *ShowcaseService) ListApproved(ctx context.Context) ([]domain.WebsiteConnection, error) {
	return s.websites.ListWebsites(ctx, domain.WebsiteApproved)
}

// ListPending returns the moderation queue.
func (s *ShowcaseService) ListPending(ctx context.Context, actor domain.Actor) ([]domain.WebsiteConnection, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.websites.ListWebsites(ctx, domain.WebsitePending)
}

func (s *ShowcaseService) Approve(ctx context.Context, actor domain.Actor, id int64) (domain.WebsiteConnection, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.WebsiteConnection{}, err
	}
	site, err := s.websites.GetWebsite(ctx, id)
	if err != nil {
		return domain.WebsiteConnection{}, err
	}
	now := s.now().UTC()
	if err := s.websites.ApproveWebsite(ctx, id, now); err != nil {
		return domain.WebsiteConnection{}, err
	}
	site.Status = domain.WebsiteApproved
	site.ApprovedDate = &now

	if site.Email != "" {
		s.notifier.Notify(domain.Email{
			To:      site.Email,
			Subject: "Your project is live on DevExchange",
			HTML:    "<p>" + html.EscapeString(site.Title) + " has been approved and is now visible in the showcase.</p>",
		})
	}
	return site, nil
}

// Remove deletes an entry; its owner or an admin may do so.
func (s *ShowcaseService) Remove(ctx context.Context, actor domain.Actor, id int64) error {
	site, err := s.websites.GetWebsite(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, site.UserID); err != nil {
		return err
	}
	if err := s.websites.DeleteWebsite(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, BannerContainer, site.BannerName); err != nil {
		s.logger.Error("banner cleanup failed", "name", site.BannerName, "error", err)
	}
	if site.Email != "" {
		s.notifier.Notify(domain.Email{
			To:      site.Email,
			Subject: "Your project was removed from DevExchange",
			HTML:    "<p>" + html.EscapeString(site.Title) + " has been removed from the showcase.</p>",
		})
	}
	return nil
}

func submitter(site domain.WebsiteConnection) string {
	if site.Email != "" {
		return site.Email
	}
	return site.UserID
}
