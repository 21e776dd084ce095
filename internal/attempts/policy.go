package attempts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts is the number of failures that locks a fingerprint.
const DefaultMaxAttempts = 5

// ErrLocked is matched by every LockedError.
var ErrLocked = errors.New("too many failed attempts")

// LockedError reports a fingerprint that reached the attempt limit.
type LockedError struct {
	Fingerprint string
	Failures    int
	MaxAttempts int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: %d of %d attempts used for %s", ErrLocked, e.Failures, e.MaxAttempts, short(e.Fingerprint))
}

// Is implements errors.Is for sentinel matching.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// State of a fingerprint.
type State int

const (
	Open State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "open"
}

// Status is a snapshot of one fingerprint's counter.
type Status struct {
	Fingerprint string
	Failures    int
	MaxAttempts int
	LastAttempt time.Time
}

// State derives the lock state from the counter.
func (s Status) State() State {
	if s.Failures >= s.MaxAttempts {
		return Locked
	}
	return Open
}

// Remaining is the number of attempts left before the fingerprint locks.
func (s Status) Remaining() int {
	if r := s.MaxAttempts - s.Failures; r > 0 {
		return r
	}
	return 0
}

// Policy enforces the attempt limit over a Store.
type Policy struct {
	store Store
	max   int
	now   func() time.Time
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the failure limit. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n >= 1 {
			p.max = n
		}
	}
}

// WithClock sets the time source used for LastAttempt.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New creates a Policy backed by store
func New(store Store, opts ...Option) *Policy {
	p := &Policy{
		store: store,
		max:   DefaultMaxAttempts,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the configured limit.
func (p *Policy) MaxAttempts() int {
	return p.max
}

func (p *Policy) status(r Record) Status {
	return Status{
		Fingerprint: r.Fingerprint,
		Failures:    r.Failures,
		MaxAttempts: p.max,
		LastAttempt: r.LastAttempt,
	}
}

// Status returns the current counter for fingerprint.
func (p *Policy) Status(ctx context.Context, fingerprint string) (Status, error) {
	r, err := p.store.Get(ctx, fingerprint)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read attempts: %w", err)
	}
	return p.status(r), nil
}

// List returns the status of every fingerprint with a stored counter.
func (p *Policy) List(ctx context.Context) ([]Status, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	statuses := make([]Status, len(records))
	for i, r := range records {
		statuses[i] = p.status(r)
	}
	return statuses, nil
}

// Reset clears the counter for fingerprint.
func (p *Policy) Reset(ctx context.Context, fingerprint string) error {
	_, err := p.store.Update(ctx, fingerprint, func(Record) (Record, error) {
		return Record{}, nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

// Begin charges one attempt against fingerprint. It returns a *LockedError
// without charging when the limit is already reached.
//
// The charge is taken before the password is checked, so attempts still in
// flight count toward the limit. With MaxAttempts-1 failures recorded, a
// concurrent attempt is refused while another one is being verified, even if
// that one turns out to be correct. A LockedError therefore means the limit
// was reached by failures plus pending attempts, not necessarily by wrong
// passwords alone.
func (p *Policy) Begin(ctx context.Context, fingerprint string) (*Attempt, error) {
	var locked *LockedError
	r, err := p.store.Update(ctx, fingerprint, func(r Record) (Record, error) {
		if r.Failures >= p.max {
			locked = &LockedError{Fingerprint: fingerprint, Failures: r.Failures, MaxAttempts: p.max}
			return r, locked
		}
		r.Failures++
		r.LastAttempt = p.now()
		return r, nil
	})
	if locked != nil {
		return nil, locked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	return &Attempt{policy: p, charged: p.status(r)}, nil
}

// Attempt is one charged decrypt attempt.
type Attempt struct {
	policy  *Policy
	charged Status
}

// Fail keeps the charge and returns the resulting status.
func (a *Attempt) Fail() Status {
	return a.charged
}

// Succeed resets the fingerprint's counter.
func (a *Attempt) Succeed(ctx context.Context) error {
	return a.policy.Reset(ctx, a.charged.Fingerprint)
}

// Abort refunds the charge. Used when the attempt never reached the
// authentication check.
func (a *Attempt) Abort(ctx context.Context) error {
	_, err := a.policy.store.Update(ctx, a.charged.Fingerprint, func(r Record) (Record, error) {
		if r.Failures > 0 {
			r.Failures--
		}
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("failed to refund attempt: %w", err)
	}
	return nil
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
