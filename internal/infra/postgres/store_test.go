package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"

	"devexchange-service/internal/domain"
)

func TestAssembleGroupsOptions(t *testing.T) {
	qrows := []questionRow{
		{ID: 1, QuestionKey: "color", QuestionText: "What color?", CategoryID: 7},
		{ID: 2, QuestionKey: "size", QuestionText: "How big?", CategoryID: 7},
	}
	orows := []optionRow{
		{ID: 10, OptionText: "Red", QuestionID: 1},
		{ID: 11, OptionText: "Blue", QuestionID: 1},
	}

	got := assemble(qrows, orows)
	if len(got) != 2 || got[0].QuestionKey != "color" || got[1].QuestionKey != "size" {
		t.Fatalf("unexpected questions %+v", got)
	}
	if len(got[0].Options) != 2 || got[0].Options[0].OptionText != "Red" || got[0].Options[1].ID != 11 {
		t.Fatalf("options must keep row order, got %+v", got[0].Options)
	}
	if got[1].Options == nil || len(got[1].Options) != 0 {
		t.Fatalf("a question without options gets an empty slice, got %#v", got[1].Options)
	}
}

func TestVoteKeyOrdering(t *testing.T) {
	keys := []domain.VoteKey{
		{ConfigLinkID: 2, ImageName: "a", QuestionID: 1, OptionID: 1},
		{ConfigLinkID: 1, ImageName: "b", QuestionID: 1, OptionID: 1},
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 2, OptionID: 1},
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 1, OptionID: 2},
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 1, OptionID: 1},
	}
	sort.Slice(keys, func(i, j int) bool { return voteKeyLess(keys[i], keys[j]) })

	want := []domain.VoteKey{
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 1, OptionID: 1},
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 1, OptionID: 2},
		{ConfigLinkID: 1, ImageName: "a", QuestionID: 2, OptionID: 1},
		{ConfigLinkID: 1, ImageName: "b", QuestionID: 1, OptionID: 1},
		{ConfigLinkID: 2, ImageName: "a", QuestionID: 1, OptionID: 1},
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], keys[i])
		}
	}
}

func TestNotFoundMapping(t *testing.T) {
	if err := notFound(fmt.Errorf("scan: %w", sql.ErrNoRows), domain.ErrImageNotFound); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected image not found, got %v", err)
	}
	other := errors.New("connection reset")
	if err := notFound(other, domain.ErrImageNotFound); !errors.Is(err, other) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unexpected mapping of driver error: %v", err)
	}
}
