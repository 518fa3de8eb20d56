package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"devexchange-service/internal/domain"
)

func TestVoteRepositoryConcurrentIncrements(t *testing.T) {
	repo := NewVoteRepository()
	key := domain.VoteKey{ConfigLinkID: 1, ImageName: "robin.png", QuestionID: 1, OptionID: 2}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.IncrementVotes(context.Background(), []domain.VoteKey{key})
		}()
	}
	wg.Wait()

	votes, _ := repo.ListVotes(context.Background(), 1)
	if len(votes) != 1 || votes[0].Count != 50 {
		t.Fatalf("expected 50 votes, got %+v", votes)
	}
}

func TestVoteRepositoryFiltersAndDeletes(t *testing.T) {
	ctx := context.Background()
	repo := NewVoteRepository()
	_ = repo.IncrementVotes(ctx, []domain.VoteKey{
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 1, OptionID: 1},
		{ConfigLinkID: 2, ImageName: "b", QuestionID: 2, OptionID: 3},
	})

	if all, _ := repo.ListVotes(ctx, 0); len(all) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(all))
	}
	_ = repo.DeleteVotes(ctx, 1)
	left, _ := repo.ListVotes(ctx, 0)
	if len(left) != 1 || left[0].ConfigLinkID != 2 {
		t.Fatalf("expected only link 2 left, got %+v", left)
	}
}

func TestRespondentTrackerWindows(t *testing.T) {
	ctx := context.Background()
	tracker := NewRespondentTracker()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_ = tracker.Touch(ctx, 1, "fresh", now.Add(-time.Hour))
	_ = tracker.Touch(ctx, 1, "week", now.Add(-5*24*time.Hour))
	_ = tracker.Touch(ctx, 1, "old", now.Add(-60*24*time.Hour))
	_ = tracker.Touch(ctx, 1, "fresh", now.Add(-2*time.Hour)) // older touch keeps the newer time
	_ = tracker.Touch(ctx, 2, "elsewhere", now)

	cases := map[int]int64{1: 1, 7: 2, 30: 2, 0: 3}
	for days, want := range cases {
		var since time.Time
		if days > 0 {
			since = now.Add(-time.Duration(days) * 24 * time.Hour)
		}
		got, _ := tracker.CountSince(ctx, 1, since)
		if got != want {
			t.Fatalf("days=%d: expected %d respondents, got %d", days, want, got)
		}
	}
}
