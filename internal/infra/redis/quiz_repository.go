package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"devexchange-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader assembles a quiz from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error)
}

// QuizRepository caches assembled quiz payloads in Redis as JSON and falls back
// to the loader on a miss.
// Payloads are stored as: SET quiz:{configLinkID}:v{version}:payload {json} EX ttl,
// where INCR quiz:{configLinkID}:version invalidates.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration, logger *slog.Logger) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error) {
	version, err := r.version(ctx, configLinkID)
	if err != nil {
		r.logger.Warn("quiz cache version read failed", "configLinkId", configLinkID, "error", err)
		return r.loader.LoadQuiz(ctx, configLinkID)
	}
	key := r.payloadKey(configLinkID, version)
	if quiz, ok := r.cached(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, configLinkID)
		if err != nil {
			return domain.Quiz{}, err
		}

		// A load overtaken by Invalidate writes under the old version, which no
		// reader asks for any more.
		if ttl := r.ttlWithJitter(); ttl > 0 {
			raw, err := json.Marshal(quiz)
			if err == nil {
				err = r.client.Set(ctx, key, raw, ttl).Err()
			}
			if err != nil {
				r.logger.Warn("quiz cache write failed", "configLinkId", configLinkID, "error", err)
			}
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate moves the link to a new payload version and drops the old payload.
func (r *QuizRepository) Invalidate(ctx context.Context, configLinkID int64) {
	version, err := r.client.Incr(ctx, r.versionKey(configLinkID)).Result()
	if err != nil {
		r.logger.Warn("quiz cache invalidate failed", "configLinkId", configLinkID, "error", err)
		return
	}
	old := r.payloadKey(configLinkID, version-1)
	if err := r.client.Del(ctx, old).Err(); err != nil {
		r.logger.Warn("quiz cache cleanup failed", "key", old, "error", err)
	}
	r.sf.Forget(old)
}

func (r *QuizRepository) version(ctx context.Context, configLinkID int64) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(configLinkID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *QuizRepository) cached(ctx context.Context, key string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("quiz cache read failed", "key", key, "error", err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) versionKey(configLinkID int64) string {
	return "quiz:" + strconv.FormatInt(configLinkID, 10) + ":version"
}

func (r *QuizRepository) payloadKey(configLinkID, version int64) string {
	return "quiz:" + strconv.FormatInt(configLinkID, 10) + ":v" + strconv.FormatInt(version, 10) + ":payload"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
