package sessions

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/internal/utils"
	"github.com/rs/zerolog/log"
)

// Attempt is the failed-attempt counter for one username.
type Attempt struct {
	Username     string     `json:"username"`
	Count        int        `json:"count"`
	LastAttempt  time.Time  `json:"lastAttempt"`
	BlockedUntil *time.Time `json:"blockedUntil,omitempty"`
}

// AttemptTracker keeps the advisory lockout counters in the store. Clearing
// the store clears every block.
type AttemptTracker struct {
	store       Store
	maxAttempts int
	block       time.Duration
	nowTime     func() time.Time
	mu          sync.Mutex
}

// NewAttemptTracker blocks a username for block after maxAttempts
// consecutive failures.
func NewAttemptTracker(store Store, maxAttempts int, block time.Duration, nowTime func() time.Time) *AttemptTracker {
	if nowTime == nil {
		nowTime = time.Now
	}
	return &AttemptTracker{
		store:       store,
		maxAttempts: maxAttempts,
		block:       block,
		nowTime:     nowTime,
	}
}

func attemptKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (t *AttemptTracker) load() (map[string]*Attempt, error) {
	all := map[string]*Attempt{}
	_, err := t.store.Get(KeyLoginAttempts, &all)
	if errors.Is(err, apperrors.ErrCorruptValue) {
		// Counters are advisory: an unreadable set is dropped and counting
		// starts over.
		log.Warn().Err(err).Msg("Dropping unreadable login attempts")
		if err := t.store.Delete(KeyLoginAttempts); err != nil {
			return nil, fmt.Errorf("[AttemptTracker load] %w", err)
		}
		return map[string]*Attempt{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[AttemptTracker load] %w", err)
	}
	if all == nil {
		all = map[string]*Attempt{}
	}
	return all, nil
}

func (t *AttemptTracker) save(all map[string]*Attempt) error {
	if len(all) == 0 {
		return t.store.Delete(KeyLoginAttempts)
	}
	return t.store.Set(KeyLoginAttempts, all)
}

// Blocked reports whether username is blocked and until when. An elapsed
// block is cleared.
func (t *AttemptTracker) Blocked(username string) (time.Time, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.load()
	if err != nil {
		return time.Time{}, false, err
	}
	a, ok := all[attemptKey(username)]
	if !ok || a.BlockedUntil == nil {
		return time.Time{}, false, nil
	}
	if !utils.Elapsed(a.BlockedUntil, t.nowTime()) {
		return utils.Value(a.BlockedUntil), true, nil
	}

	delete(all, attemptKey(username))
	return time.Time{}, false, t.save(all)
}

// ActiveBlock returns the stored counter with the latest block that has not
// yet elapsed.
func (t *AttemptTracker) ActiveBlock() (*Attempt, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.load()
	if err != nil {
		return nil, false, err
	}
	now := t.nowTime()
	var latest *Attempt
	for _, a := range all {
		if a.BlockedUntil == nil || utils.Elapsed(a.BlockedUntil, now) {
			continue
		}
		if latest == nil || a.BlockedUntil.After(*latest.BlockedUntil) {
			latest = a
		}
	}
	return latest, latest != nil, nil
}

// RecordFailure counts a failed password attempt and returns the updated
// counter. Failures older than the block window no longer count.
func (t *AttemptTracker) RecordFailure(username string) (*Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.load()
	if err != nil {
		return nil, err
	}
	now := t.nowTime()
	key := attemptKey(username)
	a, ok := all[key]
	if !ok || now.Sub(a.LastAttempt) > t.block || utils.Elapsed(a.BlockedUntil, now) {
		a = &Attempt{Username: key}
		all[key] = a
	}

	a.Count++
	a.LastAttempt = now
	if a.Count >= t.maxAttempts {
		a.BlockedUntil = utils.Ptr(now.Add(t.block))
	}
	if err := t.save(all); err != nil {
		return nil, err
	}
	return a, nil
}

// Remaining is how many failures username may still make before the block.
func (t *AttemptTracker) Remaining(a *Attempt) int {
	if a == nil {
		return t.maxAttempts
	}
	if r := t.maxAttempts - a.Count; r > 0 {
		return r
	}
	return 0
}

// Reset clears the counter for username.
func (t *AttemptTracker) Reset(username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.load()
	if err != nil {
		return err
	}
	if _, ok := all[attemptKey(username)]; !ok {
		return nil
	}
	delete(all, attemptKey(username))
	return t.save(all)
}
