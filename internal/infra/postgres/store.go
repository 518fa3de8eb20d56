package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devexchange-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store persists categories, questions, options and image uploads with bun.
// Link and group ids come from Postgres sequences and are never reused.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCategoryTree(ctx context.Context, category domain.Category, questions []domain.Question) (domain.CategoryTree, error) {
	var tree domain.CategoryTree
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := lockCategory(ctx, tx, category)
		if errors.Is(err, sql.ErrNoRows) {
			row, tree.Created, err = insertCategory(ctx, tx, category)
			if err == nil && !tree.Created {
				// A concurrent creation won the unique key; extend its row.
				row, err = lockCategory(ctx, tx, category)
			}
		}
		if err != nil {
			return err
		}
		if !tree.Created {
			if err := checkQuestionKeys(ctx, tx, row.ID, questions); err != nil {
				return err
			}
		}

		saved, err := insertQuestions(ctx, tx, row.ID, questions)
		if err != nil {
			return err
		}
		tree.Category = row.toDomain()
		tree.Questions = saved
		return nil
	})
	if err != nil {
		return domain.CategoryTree{}, err
	}
	return tree, nil
}

func lockCategory(ctx context.Context, tx bun.Tx, category domain.Category) (categoryRow, error) {
	var row categoryRow
	err := tx.NewSelect().Model(&row).
		Where("user_id = ? AND category_name = ?", category.UserID, category.CategoryName).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return row, fmt.Errorf("find category: %w", err)
	}
	return row, err
}

// insertCategory reports false when another transaction already holds the
// (user_id, category_name) key.
func insertCategory(ctx context.Context, tx bun.Tx, category domain.Category) (categoryRow, bool, error) {
	var link int64
	if err := tx.QueryRowContext(ctx, "SELECT nextval('category_config_link_seq')").Scan(&link); err != nil {
		return categoryRow{}, false, fmt.Errorf("allocate config link id: %w", err)
	}
	row := categoryRow{
		CategoryName: category.CategoryName,
		ConfigLinkID: link,
		UserID:       category.UserID,
		CreatedDate:  category.CreatedDate,
		IsActive:     category.IsActive,
		IsFeatured:   category.IsFeatured,
	}
	res, err := tx.NewInsert().Model(&row).
		On("CONFLICT (user_id, category_name) DO NOTHING").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return categoryRow{}, false, fmt.Errorf("insert category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return categoryRow{}, false, fmt.Errorf("insert category: %w", err)
	}
	return row, n == 1, nil
}

func checkQuestionKeys(ctx context.Context, tx bun.Tx, categoryID int64, questions []domain.Question) error {
	var existing []questionRow
	if err := tx.NewSelect().Model(&existing).Column("question_key").Where("category_id = ?", categoryID).Scan(ctx); err != nil {
		return fmt.Errorf("load question keys: %w", err)
	}
	stored := make([]domain.Question, len(existing))
	for i, q := range existing {
		stored[i] = domain.Question{QuestionKey: q.QuestionKey}
	}
	if dups := domain.CollidingKeys(stored, questions); len(dups) > 0 {
		return &domain.ValidationError{Message: "question keys already exist in category", Duplicates: dups}
	}
	return nil
}

func insertQuestions(ctx context.Context, tx bun.Tx, categoryID int64, questions []domain.Question) ([]domain.Question, error) {
	if len(questions) == 0 {
		return []domain.Question{}, nil
	}
	qrows := make([]questionRow, len(questions))
	for i, q := range questions {
		qrows[i] = questionRow{QuestionKey: q.QuestionKey, QuestionText: q.QuestionText, CategoryID: categoryID}
	}
	if _, err := tx.NewInsert().Model(&qrows).Returning("id").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert questions: %w", err)
	}

	var orows []optionRow
	for i, q := range questions {
		for _, o := range q.Options {
			orows = append(orows, optionRow{OptionText: o.OptionText, QuestionID: qrows[i].ID, IsCorrect: o.IsCorrect})
		}
	}
	if len(orows) > 0 {
		if _, err := tx.NewInsert().Model(&orows).Returning("id").Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert options: %w", err)
		}
	}
	return assemble(qrows, orows), nil
}

// assemble groups option rows under their question rows, keeping row order.
func assemble(qrows []questionRow, orows []optionRow) []domain.Question {
	byQuestion := make(map[int64][]domain.Option, len(qrows))
	for _, o := range orows {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], domain.Option{
			ID:         o.ID,
			OptionText: o.OptionText,
			QuestionID: o.QuestionID,
			IsCorrect:  o.IsCorrect,
		})
	}
	out := make([]domain.Question, len(qrows))
	for i, q := range qrows {
		opts := byQuestion[q.ID]
		if opts == nil {
			opts = []domain.Option{}
		}
		out[i] = domain.Question{
			ID:           q.ID,
			QuestionKey:  q.QuestionKey,
			QuestionText: q.QuestionText,
			CategoryID:   q.CategoryID,
			Options:      opts,
		}
	}
	return out
}

func (s *Store) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var row categoryRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Category{}, notFound(err, domain.ErrCategoryNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) GetCategoryByLink(ctx context.Context, configLinkID int64) (domain.Category, error) {
	var row categoryRow
	if err := s.db.NewSelect().Model(&row).Where("config_link_id = ?", configLinkID).Scan(ctx); err != nil {
		return domain.Category{}, notFound(err, domain.ErrCategoryNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.listCategories(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (s *Store) ListCategoriesByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.listCategories(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (s *Store) ListFeaturedCategories(ctx context.Context) ([]domain.Category, error) {
	return s.listCategories(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("is_active AND is_featured")
	})
}

func (s *Store) listCategories(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Category, error) {
	var rows []categoryRow
	if err := filter(s.db.NewSelect().Model(&rows)).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]domain.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) ListQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	exists, err := s.db.NewSelect().Model((*categoryRow)(nil)).Where("id = ?", categoryID).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, domain.ErrCategoryNotFound
	}

	var qrows []questionRow
	if err := s.db.NewSelect().Model(&qrows).Where("category_id = ?", categoryID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(qrows) == 0 {
		return []domain.Question{}, nil
	}
	ids := make([]int64, len(qrows))
	for i, q := range qrows {
		ids[i] = q.ID
	}
	var orows []optionRow
	if err := s.db.NewSelect().Model(&orows).Where("question_id IN (?)", bun.In(ids)).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return assemble(qrows, orows), nil
}

func (s *Store) SetCategoryActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.NewUpdate().Model((*categoryRow)(nil)).Set("is_active = ?", active).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrCategoryNotFound)
}

func (s *Store) SetCategoryFeatured(ctx context.Context, id int64, featured bool) error {
	res, err := s.db.NewUpdate().Model((*categoryRow)(nil)).Set("is_featured = ?", featured).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrCategoryNotFound)
}

// DeleteCategory relies on ON DELETE CASCADE for questions, options and images.
func (s *Store) DeleteCategory(ctx context.Context, id int64) ([]domain.ImageUpload, error) {
	var removed []domain.ImageUpload
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row categoryRow
		if err := tx.NewSelect().Model(&row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, domain.ErrCategoryNotFound)
		}
		var images []imageRow
		if err := tx.NewSelect().Model(&images).Where("config_link_id = ?", row.ConfigLinkID).Order("id ASC").Scan(ctx); err != nil {
			return fmt.Errorf("list category images: %w", err)
		}
		if _, err := tx.NewDelete().Model((*categoryRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		removed = make([]domain.ImageUpload, len(images))
		for i, img := range images {
			removed[i] = img.toDomain()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) NextGroupID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, "SELECT nextval('image_group_seq')").Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate group id: %w", err)
	}
	return id, nil
}

func (s *Store) SaveImages(ctx context.Context, images []domain.ImageUpload) ([]domain.ImageUpload, error) {
	if len(images) == 0 {
		return []domain.ImageUpload{}, nil
	}
	rows := make([]imageRow, len(images))
	for i, img := range images {
		rows[i] = imageRowFrom(img)
	}
	if _, err := s.db.NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert images: %w", err)
	}
	out := make([]domain.ImageUpload, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) GetImage(ctx context.Context, id int64) (domain.ImageUpload, error) {
	var row imageRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.ImageUpload{}, notFound(err, domain.ErrImageNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) FindImageByName(ctx context.Context, configLinkID int64, imageName string) (domain.ImageUpload, error) {
	var row imageRow
	err := s.db.NewSelect().Model(&row).
		Where("config_link_id = ? AND image_name = ?", configLinkID, imageName).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.ImageUpload{}, notFound(err, domain.ErrImageNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListImagesByLink(ctx context.Context, configLinkID int64, activeOnly bool) ([]domain.ImageUpload, error) {
	var rows []imageRow
	q := s.db.NewSelect().Model(&rows).Where("config_link_id = ?", configLinkID)
	if activeOnly {
		q = q.Where("is_active")
	}
	if err := q.Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make([]domain.ImageUpload, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) SetImageActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.NewUpdate().Model((*imageRow)(nil)).Set("is_active = ?", active).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrImageNotFound)
}

func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*imageRow)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrImageNotFound)
}

func notFound(err, missing error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	return err
}

func affected(res sql.Result, err, missing error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
