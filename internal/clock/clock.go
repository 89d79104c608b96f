// Package clock provides the slot clock used for trading-window checks. A
// slot is a fixed 400ms tick counted from a configured genesis instant, so
// every process that shares the genesis agrees on the current slot.
package clock

import (
	"sync/atomic"
	"time"
)

// SlotDuration is the wall time covered by one slot.
const SlotDuration = 400 * time.Millisecond

// MaxStartSlotDelay bounds how far in the future a market's start slot may
// be scheduled: one week of slots.
const MaxStartSlotDelay uint64 = 1_512_000

// System derives slots from the wall clock relative to a genesis instant.
type System struct {
	genesis time.Time
	now     func() time.Time
}

// NewSystem returns a slot clock anchored at genesis. Times before genesis
// map to slot zero.
func NewSystem(genesis time.Time) *System {
	return &System{genesis: genesis, now: time.Now}
}

// CurrentSlot returns the slot covering the current wall time.
func (s *System) CurrentSlot() uint64 {
	elapsed := s.now().Sub(s.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / SlotDuration)
}

// SlotTime returns the wall time at which the given slot begins.
func (s *System) SlotTime(slot uint64) time.Time {
	return s.genesis.Add(time.Duration(slot) * SlotDuration)
}

// Manual is a hand-advanced slot clock for tests and tooling.
type Manual struct {
	slot atomic.Uint64
}

// NewManual returns a manual clock positioned at slot.
func NewManual(slot uint64) *Manual {
	m := &Manual{}
	m.slot.Store(slot)
	return m
}

func (m *Manual) CurrentSlot() uint64 { return m.slot.Load() }

// Advance moves the clock forward by n slots.
func (m *Manual) Advance(n uint64) { m.slot.Add(n) }

// Set positions the clock at an absolute slot.
func (m *Manual) Set(slot uint64) { m.slot.Store(slot) }
