package models

import "time"

// CycleStateID is the primary key of the single cycle_state row.
const CycleStateID = 0

// CycleState is the persisted scheduler state.
//
// Order is a permutation of media IDs. Pointer is the index of the first item
// not yet consumed by a completed day. DailyIndex counts items, starting at
// Pointer, already viewed in the day window anchored at DayAnchor.
type CycleState struct {
	Order      []string
	Pointer    int
	DailyIndex int
	DayAnchor  time.Time
}

// Clone returns a deep copy of s.
func (s *CycleState) Clone() *CycleState {
	c := *s
	c.Order = append([]string(nil), s.Order...)
	return &c
}

// WindowSize returns min(limit, max(0, len(Order)-Pointer)).
func (s *CycleState) WindowSize(limit int) int {
	remaining := len(s.Order) - s.Pointer
	if remaining <= 0 {
		return 0
	}
	return min(remaining, limit)
}

// Window returns the IDs offered today, at most limit of them.
func (s *CycleState) Window(limit int) []string {
	n := s.WindowSize(limit)
	if n == 0 {
		return nil
	}
	return append([]string(nil), s.Order[s.Pointer:s.Pointer+n]...)
}

// IndexOf returns the position of id in Order or -1.
func (s *CycleState) IndexOf(id string) int {
	for i, v := range s.Order {
		if v == id {
			return i
		}
	}
	return -1
}

// Day is the resolved day window: the offered records in schedule order and
// how many of the leading ones were already viewed today.
type Day struct {
	Records    []MediaRecord
	DailyIndex int
}

// Remaining returns how many offered items are still unviewed today.
func (d *Day) Remaining() int {
	return max(0, len(d.Records)-d.DailyIndex)
}
