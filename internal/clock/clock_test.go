package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_CurrentSlot(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSystem(genesis)

	c.now = func() time.Time { return genesis }
	assert.Equal(t, uint64(0), c.CurrentSlot())

	c.now = func() time.Time { return genesis.Add(399 * time.Millisecond) }
	assert.Equal(t, uint64(0), c.CurrentSlot())

	c.now = func() time.Time { return genesis.Add(400 * time.Millisecond) }
	assert.Equal(t, uint64(1), c.CurrentSlot())

	c.now = func() time.Time { return genesis.Add(time.Hour) }
	assert.Equal(t, uint64(9_000), c.CurrentSlot())
}

func TestSystem_BeforeGenesis(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSystem(genesis)
	c.now = func() time.Time { return genesis.Add(-time.Minute) }
	assert.Equal(t, uint64(0), c.CurrentSlot())
}

func TestSystem_SlotTime(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSystem(genesis)
	assert.Equal(t, genesis.Add(2*time.Second), c.SlotTime(5))
}

func TestManual(t *testing.T) {
	m := NewManual(10)
	assert.Equal(t, uint64(10), m.CurrentSlot())

	m.Advance(5)
	assert.Equal(t, uint64(15), m.CurrentSlot())

	m.Set(100)
	assert.Equal(t, uint64(100), m.CurrentSlot())
}
