package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RespondentTracker keeps one sorted set per link id: member is the respondent,
// score the unix time of their latest answer. A window count is then a ZCOUNT.
//
//	ZADD quiz:{configLinkID}:respondents {unix} {respondentID}
type RespondentTracker struct {
	client *redis.Client
}

func NewRespondentTracker(client *redis.Client) *RespondentTracker {
	return &RespondentTracker{client: client}
}

func (t *RespondentTracker) Touch(ctx context.Context, configLinkID int64, respondentID string, at time.Time) error {
	return t.client.ZAdd(ctx, t.key(configLinkID), redis.Z{
		Score:  float64(at.Unix()),
		Member: respondentID,
	}).Err()
}

func (t *RespondentTracker) CountSince(ctx context.Context, configLinkID int64, since time.Time) (int64, error) {
	if since.IsZero() {
		return t.client.ZCard(ctx, t.key(configLinkID)).Result()
	}
	return t.client.ZCount(ctx, t.key(configLinkID), strconv.FormatInt(since.Unix(), 10), "+inf").Result()
}

func (t *RespondentTracker) key(configLinkID int64) string {
	return "quiz:" + strconv.FormatInt(configLinkID, 10) + ":respondents"
}
