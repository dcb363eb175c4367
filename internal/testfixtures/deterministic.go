package testfixtures

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock is a settable time source for services that take a now function.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc returns Now as a function value; a nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// AdvanceDays moves the clock by whole calendar days and returns the new
// instant. Wall-clock time is preserved across DST changes.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
	return c.now
}

// IDGenerator hands out reproducible identifiers.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
	uuids  bool
}

// NewIDGenerator yields "prefix-1", "prefix-2", ... An empty prefix means "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator yields name based UUIDs derived from prefix and a counter.
// The ids look like the random UUIDs used in production but repeat from run
// to run.
func NewUUIDGenerator(prefix string) *IDGenerator {
	g := NewIDGenerator(prefix)
	g.uuids = true
	return g
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	g.n++
	name := g.prefix + "-" + strconv.Itoa(g.n)
	uuids := g.uuids
	g.mu.Unlock()

	if uuids {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
	}
	return name
}

// NextFunc returns Next as a function value.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.n = 0
	g.mu.Unlock()
}
