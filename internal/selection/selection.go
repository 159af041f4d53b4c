package selection

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is the window in which a repeated select-all or clear-all is ignored.
const DefaultDebounce = 500 * time.Millisecond

type Option func(*Selection)

// WithDebounce sets the debounce window. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(s *Selection) { s.debounce = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Selection) { s.now = now }
}

// Selection holds the product codes a session filters on. Every transition
// swaps the whole snapshot under the lock, so readers never see a partial update.
type Selection struct {
	mu          sync.RWMutex
	codes       []string
	debounce    time.Duration
	now         func() time.Time
	lastAll     time.Time
	lastClear   time.Time
	lastTouched time.Time
}

// New seeds the selection with the whole universe.
func New(universe []string, opts ...Option) *Selection {
	s := &Selection{
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codes = normalize(universe)
	s.lastTouched = s.now()
	return s
}

// Codes returns a copy of the current selection.
func (s *Selection) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.codes...)
}

// SelectAll replaces the selection with the universe. A repeat inside the
// debounce window is a no-op.
func (s *Selection) SelectAll(universe []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastTouched = now
	if s.debounced(s.lastAll, now) {
		return append([]string(nil), s.codes...)
	}
	s.lastAll = now
	s.codes = normalize(universe)
	return append([]string(nil), s.codes...)
}

// ClearAll empties the selection. A repeat inside the debounce window is a no-op.
func (s *Selection) ClearAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastTouched = now
	if s.debounced(s.lastClear, now) {
		return append([]string(nil), s.codes...)
	}
	s.lastClear = now
	s.codes = []string{}
	return []string{}
}

// Set replaces the selection with exactly the given codes. Codes unknown to
// the universe are kept; they simply match nothing.
func (s *Selection) Set(codes []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTouched = s.now()
	s.codes = normalize(codes)
	return append([]string(nil), s.codes...)
}

// Toggle adds the code when absent and removes it when present.
func (s *Selection) Toggle(code string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTouched = s.now()
	next := make([]string, 0, len(s.codes)+1)
	found := false
	for _, c := range s.codes {
		if c == code {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found && code != "" {
		next = append(next, code)
	}
	s.codes = normalize(next)
	return append([]string(nil), s.codes...)
}

// IdleSince reports when the selection was last touched.
func (s *Selection) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTouched
}

func (s *Selection) debounced(last, now time.Time) bool {
	return s.debounce > 0 && !last.IsZero() && now.Sub(last) < s.debounce
}

func normalize(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
