package postgres

import (
	"context"
	"fmt"
	"sort"

	"devexchange-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const incrementVoteSQL = `
INSERT INTO answer_votes (config_link_id, image_name, question_id, option_id, vote_count, updated_at)
VALUES ($1, $2, $3, $4, 1, now())
ON CONFLICT (config_link_id, image_name, question_id, option_id)
DO UPDATE SET vote_count = answer_votes.vote_count + 1, updated_at = now()`

// VoteRepository keeps vote counters in answer_votes. Increments are single
// upserts so concurrent submissions never lose a vote.
type VoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

func (r *VoteRepository) IncrementVotes(ctx context.Context, keys []domain.VoteKey) error {
	if len(keys) == 0 {
		return nil
	}
	// Fixed lock order across concurrent batches.
	ordered := append([]domain.VoteKey(nil), keys...)
	sort.Slice(ordered, func(i, j int) bool { return voteKeyLess(ordered[i], ordered[j]) })

	return r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, k := range ordered {
			batch.Queue(incrementVoteSQL, k.ConfigLinkID, k.ImageName, k.QuestionID, k.OptionID)
		}
		br := tx.SendBatch(ctx, batch)
		for range ordered {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("increment vote: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *VoteRepository) ListVotes(ctx context.Context, configLinkID int64) ([]domain.VoteCount, error) {
	query := `SELECT config_link_id, image_name, question_id, option_id, vote_count FROM answer_votes`
	var args []interface{}
	if configLinkID != 0 {
		query += ` WHERE config_link_id = $1`
		args = append(args, configLinkID)
	}
	query += ` ORDER BY config_link_id, image_name, question_id, option_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.VoteCount, 0)
	for rows.Next() {
		var v domain.VoteCount
		if err := rows.Scan(&v.ConfigLinkID, &v.ImageName, &v.QuestionID, &v.OptionID, &v.Count); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VoteRepository) DeleteVotes(ctx context.Context, configLinkID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM answer_votes WHERE config_link_id = $1`, configLinkID); err != nil {
		return fmt.Errorf("delete votes: %w", err)
	}
	return nil
}

func voteKeyLess(a, b domain.VoteKey) bool {
	if a.ConfigLinkID != b.ConfigLinkID {
		return a.ConfigLinkID < b.ConfigLinkID
	}
	if a.ImageName != b.ImageName {
		return a.ImageName < b.ImageName
	}
	if a.QuestionID != b.QuestionID {
		return a.QuestionID < b.QuestionID
	}
	return a.OptionID < b.OptionID
}
