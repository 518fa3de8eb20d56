package memory

import (
	"context"
	"sort"
	"sync"

	"devexchange-service/internal/domain"
)

// VoteRepository keeps vote counters in a map guarded by one mutex, so an
// increment can never be lost to a concurrent one.
type VoteRepository struct {
	mu     sync.Mutex
	counts map[domain.VoteKey]int64
}

func NewVoteRepository() *VoteRepository {
	return &VoteRepository{counts: make(map[domain.VoteKey]int64)}
}

func (r *VoteRepository) IncrementVotes(_ context.Context, keys []domain.VoteKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		r.counts[k]++
	}
	return nil
}

func (r *VoteRepository) ListVotes(_ context.Context, configLinkID int64) ([]domain.VoteCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VoteCount, 0, len(r.counts))
	for k, c := range r.counts {
		if configLinkID != 0 && k.ConfigLinkID != configLinkID {
			continue
		}
		out = append(out, domain.VoteCount{VoteKey: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].VoteKey, out[j].VoteKey
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
	})
	return out, nil
}

func (r *VoteRepository) DeleteVotes(_ context.Context, configLinkID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.counts {
		if k.ConfigLinkID == configLinkID {
			delete(r.counts, k)
		}
	}
	return nil
}
