// Package pending holds draft registrations for a bounded window until the
// user proves control of the email via OTP. Entries live only in process
// memory: losing them on restart just means the user signs up again.
package pending

import (
	"sync"
	"time"

	"studenthub/internal/apperr"
	"studenthub/model"
	"studenthub/utils"
)

// entry 一条待验证注册；gen 为代际戳，定时清理任务只清除自己那一代的条目
type entry struct {
	otp       string
	expiresAt time.Time
	draft     model.User
	gen       uint64
	timer     *time.Timer
}

// Table maps email -> pending registration with a fixed TTL. Every
// read-modify-write goes through one mutex; the deferred reaper scheduled by
// Begin only removes the entry if its generation stamp still matches, so a
// Begin that superseded an expired key is never clobbered by a stale timer.
type Table struct {
	mu      sync.Mutex
	ttl     time.Duration
	digits  int
	entries map[string]*entry
	nextGen uint64
	now     func() time.Time // 可注入时钟，便于测试过期分支
}

// NewTable creates a table with the given OTP TTL and code length.
func NewTable(ttl time.Duration, digits int) *Table {
	return &Table{
		ttl:     ttl,
		digits:  digits,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Begin registers a draft user and returns the generated OTP and its absolute
// expiry. It fails with apperr.ErrEmailTaken if a live pending registration
// already exists for the email; an entry already past its expiry counts as
// absent and is superseded.
func (t *Table) Begin(email string, draft model.User) (string, time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[email]; ok {
		if t.now().Before(e.expiresAt) {
			return "", time.Time{}, apperr.ErrEmailTaken
		}
		// 已过期但 reaper 尚未执行：直接顶替
		e.timer.Stop()
		delete(t.entries, email)
	}

	otp, err := utils.GenerateOTP(t.digits)
	if err != nil {
		return "", time.Time{}, err
	}

	t.nextGen++
	gen := t.nextGen
	e := &entry{
		otp:       otp,
		expiresAt: t.now().Add(t.ttl),
		draft:     draft,
		gen:       gen,
	}
	e.timer = time.AfterFunc(t.ttl, func() { t.reap(email, gen) })
	t.entries[email] = e

	return otp, e.expiresAt, nil
}

// Verify checks the supplied code and, on success, removes the entry and
// returns the draft user for the caller to commit. Failure modes:
//   - apperr.ErrPendingNotFound: no entry (including already reaped)
//   - apperr.ErrOTPExpired: at/after expiry; the entry is removed exactly as
//     the reaper would have removed it
//   - apperr.ErrInvalidOTP: code mismatch; the entry is retained
//
// Removal happens under the table lock, so the reaper can never observe a
// half-consumed entry.
func (t *Table) Verify(email, suppliedOTP string) (model.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[email]
	if !ok {
		return model.User{}, apperr.ErrPendingNotFound
	}
	if !t.now().Before(e.expiresAt) {
		e.timer.Stop()
		delete(t.entries, email)
		return model.User{}, apperr.ErrOTPExpired
	}
	if e.otp != suppliedOTP {
		return model.User{}, apperr.ErrInvalidOTP
	}

	e.timer.Stop()
	delete(t.entries, email)
	return e.draft, nil
}

// Invalidate removes a pending registration regardless of state. No-op if absent.
func (t *Table) Invalidate(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[email]; ok {
		e.timer.Stop()
		delete(t.entries, email)
	}
}

// Has reports whether a pending registration currently exists for the email,
// regardless of expiry state.
func (t *Table) Has(email string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[email]
	return ok
}

// reap 定时清理：仅当条目仍属于调度时的那一代才删除
func (t *Table) reap(email string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[email]; ok && e.gen == gen {
		delete(t.entries, email)
	}
}
