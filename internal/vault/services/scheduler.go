package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/logging"
	"github.com/dmitrijs2005/dripvault/internal/vault/models"
	"github.com/dmitrijs2005/dripvault/internal/vault/repositories/cycle"
)

const (
	DefaultDailyLimit   = 7
	DefaultDayStartHour = 7
)

// Today is a resolved day window.
type Today struct {
	// IDs are the offered media IDs in schedule order.
	IDs []string
	// DailyIndex counts the leading IDs already viewed today.
	DailyIndex int
	Pointer    int
	CycleLen   int
}

// Scheduler computes the daily window over the persisted CycleState and
// advances it. Every method reads the state, applies one transition and
// writes the whole record back; callers serialize access per vault.
type Scheduler struct {
	dailyLimit   int
	dayStartHour int
	loc          *time.Location
	intn         func(n int) int
	log          logging.Logger
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDailyLimit sets the window size.
func WithDailyLimit(n int) SchedulerOption {
	return func(s *Scheduler) { s.dailyLimit = n }
}

// WithDayStart sets the local hour and zone at which a new day begins.
func WithDayStart(hour int, loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		s.dayStartHour = hour
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRandom replaces the secure random source used for shuffling. intn
// must return a uniform value in [0, n).
func WithRandom(intn func(n int) int) SchedulerOption {
	return func(s *Scheduler) { s.intn = intn }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l logging.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		dailyLimit:   DefaultDailyLimit,
		dayStartHour: DefaultDayStartHour,
		loc:          time.Local,
		intn:         secureIntn,
		log:          logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DayStart returns the start of the day window containing now: today at
// the start hour, or yesterday at the start hour before that.
func (s *Scheduler) DayStart(now time.Time) time.Time {
	t := now.In(s.loc)
	anchor := time.Date(t.Year(), t.Month(), t.Day(), s.dayStartHour, 0, 0, 0, s.loc)
	if t.Before(anchor) {
		anchor = time.Date(t.Year(), t.Month(), t.Day()-1, s.dayStartHour, 0, 0, 0, s.loc)
	}
	return anchor
}

// ResolveToday bootstraps the state if needed, applies a pending day
// rollover and returns the current window.
func (s *Scheduler) ResolveToday(ctx context.Context, repo cycle.Repository, now time.Time, knownIDs []string) (*Today, error) {
	st, err := s.current(ctx, repo, now, knownIDs)
	if err != nil {
		return nil, err
	}
	return s.today(st), nil
}

// MarkViewed counts id as viewed today. An id inside today's window that is
// not yet counted is moved to the head of the unviewed part of the window,
// so the viewed prefix always names exactly the viewed items. Re-views and
// IDs outside the window leave the state unchanged. It reports whether the
// view was counted.
func (s *Scheduler) MarkViewed(ctx context.Context, repo cycle.Repository, now time.Time, id string, knownIDs []string) (bool, error) {
	st, err := s.current(ctx, repo, now, knownIDs)
	if err != nil {
		return false, err
	}

	window := st.WindowSize(s.dailyLimit)
	i := st.IndexOf(id)
	if i < st.Pointer+st.DailyIndex || i >= st.Pointer+window || st.DailyIndex >= window {
		return false, nil
	}

	head := st.Pointer + st.DailyIndex
	st.Order[head], st.Order[i] = st.Order[i], st.Order[head]
	st.DailyIndex++

	if err := s.put(ctx, repo, st); err != nil {
		return false, err
	}
	return true, nil
}

// Reconcile adds IDs missing from the order and drops IDs no longer known.
// The consumed prefix and today's viewed items keep their positions; only
// the unviewed remainder plus the new IDs is reshuffled.
func (s *Scheduler) Reconcile(ctx context.Context, repo cycle.Repository, now time.Time, knownIDs []string) error {
	st, err := s.get(ctx, repo)
	if err != nil {
		return err
	}
	if st == nil {
		st = s.bootstrap(now, knownIDs)
		return s.put(ctx, repo, st)
	}

	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = struct{}{}
	}

	changed := false
	for i := len(st.Order) - 1; i >= 0; i-- {
		if _, ok := known[st.Order[i]]; !ok {
			removeAt(st, i)
			changed = true
		}
	}

	inOrder := make(map[string]struct{}, len(st.Order))
	for _, id := range st.Order {
		inOrder[id] = struct{}{}
	}
	var added []string
	for _, id := range knownIDs {
		if _, ok := inOrder[id]; !ok {
			added = append(added, id)
		}
	}

	if len(added) > 0 {
		frozen := min(st.Pointer+st.DailyIndex, len(st.Order))
		suffix := append(append([]string(nil), st.Order[frozen:]...), added...)
		s.shuffle(suffix)
		st.Order = append(st.Order[:frozen:frozen], suffix...)
		changed = true
	}

	if !changed {
		return nil
	}

	s.log.Info(ctx, "cycle reconciled", "added", len(added), "cycle_len", len(st.Order), "pointer", st.Pointer)
	return s.put(ctx, repo, st)
}

// Remove drops id from the order, keeping pointer and dailyIndex aligned
// with the items they counted.
func (s *Scheduler) Remove(ctx context.Context, repo cycle.Repository, id string) error {
	st, err := s.get(ctx, repo)
	if err != nil || st == nil {
		return err
	}

	i := st.IndexOf(id)
	if i < 0 {
		return nil
	}
	next := st.Clone()
	removeAt(next, i)

	return s.put(ctx, repo, next)
}

func removeAt(st *models.CycleState, i int) {
	st.Order = append(st.Order[:i], st.Order[i+1:]...)
	switch {
	case i < st.Pointer:
		st.Pointer = max(0, st.Pointer-1)
	case i < st.Pointer+st.DailyIndex:
		st.DailyIndex = max(0, st.DailyIndex-1)
	}
}

// current loads the state, creating it on first use, and persists a day
// rollover when one is due. The result is a copy callers may mutate.
func (s *Scheduler) current(ctx context.Context, repo cycle.Repository, now time.Time, knownIDs []string) (*models.CycleState, error) {
	st, err := s.get(ctx, repo)
	if err != nil {
		return nil, err
	}

	if st == nil {
		st = s.bootstrap(now, knownIDs)
		s.log.Info(ctx, "cycle created", "cycle_len", len(st.Order))
		if err := s.put(ctx, repo, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	next := st.Clone()
	if !s.rollover(ctx, next, now, knownIDs) {
		return next, nil
	}
	if err := s.put(ctx, repo, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Scheduler) bootstrap(now time.Time, knownIDs []string) *models.CycleState {
	order := append([]string{}, knownIDs...)
	s.shuffle(order)
	return &models.CycleState{Order: order, DayAnchor: s.DayStart(now)}
}

// rollover applies the day-boundary transition to st and reports whether
// anything changed.
func (s *Scheduler) rollover(ctx context.Context, st *models.CycleState, now time.Time, knownIDs []string) bool {
	todayAnchor := s.DayStart(now)
	if !st.DayAnchor.Before(todayAnchor) {
		return false
	}

	if st.DailyIndex > 0 {
		st.Pointer += st.DailyIndex
		st.DailyIndex = 0
	}
	st.DayAnchor = todayAnchor

	s.log.Debug(ctx, "day rollover", "pointer", st.Pointer, "cycle_len", len(st.Order))

	if st.Pointer >= len(st.Order) {
		order := append([]string{}, knownIDs...)
		s.shuffle(order)
		st.Order = order
		st.Pointer = 0
		s.log.Info(ctx, "new cycle started", "cycle_len", len(order))
	}
	return true
}

func (s *Scheduler) today(st *models.CycleState) *Today {
	ids := st.Window(s.dailyLimit)
	return &Today{
		IDs:        ids,
		DailyIndex: min(st.DailyIndex, len(ids)),
		Pointer:    st.Pointer,
		CycleLen:   len(st.Order),
	}
}

func (s *Scheduler) get(ctx context.Context, repo cycle.Repository) (*models.CycleState, error) {
	st, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return st, nil
}

func (s *Scheduler) put(ctx context.Context, repo cycle.Repository, st *models.CycleState) error {
	if err := repo.Put(ctx, st); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return nil
}

// shuffle is a Fisher–Yates shuffle driven by s.intn.
func (s *Scheduler) shuffle(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func secureIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}
