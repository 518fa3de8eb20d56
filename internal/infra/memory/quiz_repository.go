package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"devexchange-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader assembles a quiz from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error)
}

// QuizRepository caches assembled quizzes with TTL to avoid repeated store hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[int64]cachedQuiz
	// generation is bumped by every Invalidate; a load only stores its result
	// if no invalidation happened while it ran.
	generation uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, configLinkID int64) (domain.Quiz, error) {
	if quiz, ok := r.cached(configLinkID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(configLinkID, 10), func() (interface{}, error) {
		if quiz, ok := r.cached(configLinkID); ok {
			return quiz, nil
		}
		now := r.clock()
		r.mu.RLock()
		gen := r.generation
		r.mu.RUnlock()

		quiz, err := r.loader.LoadQuiz(ctx, configLinkID)
		if err != nil {
			return domain.Quiz{}, err
		}

		r.mu.Lock()
		if r.generation == gen {
			r.cache[configLinkID] = cachedQuiz{
				quiz:      quiz,
				expiresAt: now.Add(r.ttlWithJitterLocked()),
			}
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached quiz so the next read reloads it.
func (r *QuizRepository) Invalidate(_ context.Context, configLinkID int64) {
	r.mu.Lock()
	delete(r.cache, configLinkID)
	r.generation++
	r.mu.Unlock()
	r.sf.Forget(strconv.FormatInt(configLinkID, 10))
}

func (r *QuizRepository) cached(configLinkID int64) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[configLinkID]; ok && entry.expiresAt.After(now) {
		return entry.quiz, true
	}
	return domain.Quiz{}, false
}

func (r *QuizRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
