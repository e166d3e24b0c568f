// Package clock supplies "now" and the display stamp used on chat messages.
package clock

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // civil zone must resolve on hosts without zoneinfo
)

// StampLayout renders HH:mm:ss.
const StampLayout = "15:04:05"

// Clock is the time source shared by every component.
type Clock interface {
	Now() time.Time
}

// Stamper formats instants in a fixed civil timezone.
type Stamper struct {
	loc *time.Location
}

// NewStamper loads the named IANA zone, e.g. "America/Sao_Paulo".
func NewStamper(zone string) (*Stamper, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Stamper{loc: loc}, nil
}

// Stamp renders t as HH:mm:ss in the stamper's zone.
func (s *Stamper) Stamp(t time.Time) string {
	return t.In(s.loc).Format(StampLayout)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
