package memory

import (
	"context"
	"sort"
	"time"

	"devexchange-service/internal/domain"
)

func (s *Store) HasRole(_ context.Context, userID, role string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[userID][role]
	return ok, nil
}

// GrantRole adds a role directly; used to seed admins and in tests.
func (s *Store) GrantRole(_ context.Context, userID, role string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grantLocked(userID, role, at)
	return nil
}

func (s *Store) grantLocked(userID, role string, at time.Time) {
	if s.roles[userID] == nil {
		s.roles[userID] = make(map[string]time.Time)
	}
	if _, ok := s.roles[userID][role]; !ok {
		s.roles[userID][role] = at
	}
}

func (s *Store) FindToken(_ context.Context, userID, kind string) (domain.VerificationToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest domain.VerificationToken
	found := false
	for _, t := range s.tokens {
		if t.UserID == userID && t.Kind == kind && (!found || t.CreatedAt.After(newest.CreatedAt)) {
			newest, found = t, true
		}
	}
	return newest, found, nil
}

func (s *Store) ReplaceToken(_ context.Context, token domain.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for raw, t := range s.tokens {
		if t.UserID == token.UserID && t.Kind == token.Kind {
			delete(s.tokens, raw)
		}
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *Store) ConsumeToken(_ context.Context, raw string, now time.Time) (domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[raw]
	if !ok || !t.Valid(now) {
		return domain.VerificationToken{}, domain.ErrInvalidToken
	}
	delete(s.tokens, raw)
	s.grantLocked(t.UserID, t.Kind, now)
	t.VerifiedAt = &now
	return t, nil
}

func (s *Store) SaveWebsite(_ context.Context, site domain.WebsiteConnection) (domain.WebsiteConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWebsiteID++
	site.ID = s.nextWebsiteID
	s.websites[site.ID] = site
	return site, nil
}

func (s *Store) GetWebsite(_ context.Context, id int64) (domain.WebsiteConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.websites[id]
	if !ok {
		return domain.WebsiteConnection{}, domain.ErrWebsiteNotFound
	}
	return site, nil
}

func (s *Store) ListWebsites(_ context.Context, status domain.WebsiteStatus) ([]domain.WebsiteConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WebsiteConnection, 0)
	for _, site := range s.websites {
		if site.Status == status {
			out = append(out, site)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ApproveWebsite(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.websites[id]
	if !ok {
		return domain.ErrWebsiteNotFound
	}
	site.Status = domain.WebsiteApproved
	site.ApprovedDate = &at
	s.websites[id] = site
	return nil
}

func (s *Store) DeleteWebsite(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.websites[id]; !ok {
		return domain.ErrWebsiteNotFound
	}
	delete(s.websites, id)
	return nil
}
