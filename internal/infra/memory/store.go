package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"devexchange-service/internal/domain"
)

// Store is an in-memory implementation of the category, image, verification
// and website repositories. Ids come from counters that only ever grow, so
// deleting a row never frees its id.
type Store struct {
	mu sync.RWMutex

	categories map[int64]domain.Category
	questions  map[int64][]domain.Question // by category id, insertion order
	images     map[int64]domain.ImageUpload
	tokens     map[string]domain.VerificationToken
	roles      map[string]map[string]time.Time
	websites   map[int64]domain.WebsiteConnection

	nextCategoryID int64
	nextLinkID     int64
	nextQuestionID int64
	nextOptionID   int64
	nextImageID    int64
	nextGroupID    int64
	nextWebsiteID  int64
}

func NewStore() *Store {
	return &Store{
		categories: make(map[int64]domain.Category),
		questions:  make(map[int64][]domain.Question),
		images:     make(map[int64]domain.ImageUpload),
		tokens:     make(map[string]domain.VerificationToken),
		roles:      make(map[string]map[string]time.Time),
		websites:   make(map[int64]domain.WebsiteConnection),
	}
}

func (s *Store) CreateCategoryTree(_ context.Context, category domain.Category, questions []domain.Question) (domain.CategoryTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.findCategoryLocked(category.UserID, category.CategoryName)
	if found {
		if dups := domain.CollidingKeys(s.questions[existing.ID], questions); len(dups) > 0 {
			return domain.CategoryTree{}, &domain.ValidationError{Message: "question keys already exist in category", Duplicates: dups}
		}
		category = existing
	} else {
		s.nextCategoryID++
		s.nextLinkID++
		category.ID = s.nextCategoryID
		category.ConfigLinkID = s.nextLinkID
		s.categories[category.ID] = category
	}

	saved := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		s.nextQuestionID++
		q.ID = s.nextQuestionID
		q.CategoryID = category.ID
		opts := make([]domain.Option, 0, len(q.Options))
		for _, o := range q.Options {
			s.nextOptionID++
			o.ID = s.nextOptionID
			o.QuestionID = q.ID
			opts = append(opts, o)
		}
		q.Options = opts
		saved = append(saved, q)
	}
	s.questions[category.ID] = append(s.questions[category.ID], saved...)

	return domain.CategoryTree{Category: category, Questions: cloneQuestions(saved), Created: !found}, nil
}

func (s *Store) findCategoryLocked(userID, name string) (domain.Category, bool) {
	for _, c := range s.categories {
		if c.UserID == userID && c.CategoryName == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *Store) GetCategory(_ context.Context, id int64) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (s *Store) GetCategoryByLink(_ context.Context, configLinkID int64) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ConfigLinkID == configLinkID {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	return s.filterCategories(func(domain.Category) bool { return true }), nil
}

func (s *Store) ListCategoriesByUser(_ context.Context, userID string) ([]domain.Category, error) {
	return s.filterCategories(func(c domain.Category) bool { return c.UserID == userID }), nil
}

func (s *Store) ListFeaturedCategories(_ context.Context) ([]domain.Category, error) {
	return s.filterCategories(func(c domain.Category) bool { return c.IsActive && c.IsFeatured }), nil
}

func (s *Store) filterCategories(keep func(domain.Category) bool) []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListQuestions(_ context.Context, categoryID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.categories[categoryID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return cloneQuestions(s.questions[categoryID]), nil
}

func (s *Store) SetCategoryActive(_ context.Context, id int64, active bool) error {
	return s.updateCategory(id, func(c *domain.Category) { c.IsActive = active })
}

func (s *Store) SetCategoryFeatured(_ context.Context, id int64, featured bool) error {
	return s.updateCategory(id, func(c *domain.Category) { c.IsFeatured = featured })
}

func (s *Store) updateCategory(id int64, fn func(*domain.Category)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	fn(&c)
	s.categories[id] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) ([]domain.ImageUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	var removed []domain.ImageUpload
	for imgID, img := range s.images {
		if img.ConfigLinkID == c.ConfigLinkID {
			removed = append(removed, img)
			delete(s.images, imgID)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	delete(s.questions, id)
	delete(s.categories, id)
	return removed, nil
}

func (s *Store) NextGroupID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGroupID++
	return s.nextGroupID, nil
}

func (s *Store) SaveImages(_ context.Context, images []domain.ImageUpload) ([]domain.ImageUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make([]domain.ImageUpload, 0, len(images))
	for _, img := range images {
		s.nextImageID++
		img.ID = s.nextImageID
		s.images[img.ID] = img
		saved = append(saved, img)
	}
	return saved, nil
}

func (s *Store) GetImage(_ context.Context, id int64) (domain.ImageUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return domain.ImageUpload{}, domain.ErrImageNotFound
	}
	return img, nil
}

// FindImageByName returns the newest image with that name under the link id.
func (s *Store) FindImageByName(_ context.Context, configLinkID int64, imageName string) (domain.ImageUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found domain.ImageUpload
	for _, img := range s.images {
		if img.ConfigLinkID == configLinkID && img.ImageName == imageName && img.ID > found.ID {
			found = img
		}
	}
	if found.ID == 0 {
		return domain.ImageUpload{}, domain.ErrImageNotFound
	}
	return found, nil
}

func (s *Store) ListImagesByLink(_ context.Context, configLinkID int64, activeOnly bool) ([]domain.ImageUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ImageUpload, 0)
	for _, img := range s.images {
		if img.ConfigLinkID != configLinkID || (activeOnly && !img.IsActive) {
			continue
		}
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetImageActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return domain.ErrImageNotFound
	}
	img.IsActive = active
	s.images[id] = img
	return nil
}

func (s *Store) DeleteImage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return domain.ErrImageNotFound
	}
	delete(s.images, id)
	return nil
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]domain.Option(nil), q.Options...)
		out[i] = q
	}
	return out
}
