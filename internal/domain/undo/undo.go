// Package undo implements the time-boxed correction window that follows an
// auto-routed passage. A single slot tracks the most recent correction; the
// operator can revert it or cycle through the router's other candidates
// until the window times out. Showing a new correction unconditionally
// discards the previous one.
package undo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is how long a correction stays actionable.
const DefaultWindow = 15 * time.Second

const (
	successLinger = time.Second // brief "updated" display before auto-hide
)

// Correction describes one reassignable passage.
type Correction struct {
	EventCode string    `json:"event_code"`
	PassID    uuid.UUID `json:"pass_id"`
	FromCode  string    `json:"from_code"` // pre-routing value, Undo target
	ToCode    string    `json:"to_code"`   // what was recorded
	Choices   []string  `json:"choices"`   // router candidate sequence
}

// Reassigner is the persistence collaborator that moves a pass to another
// station. Reassigning to the current station must be a no-op.
type Reassigner interface {
	ReassignStation(ctx context.Context, passID uuid.UUID, stationCode string) error
}

// Controller is the single-slot correction state machine. It is safe for
// concurrent use, but corrections are last-write-wins: only the most recent
// Show is ever actionable.
type Controller struct {
	mu         sync.Mutex
	reassigner Reassigner
	window     time.Duration

	current    *Correction
	status     string
	timer      *time.Timer
	generation uint64 // invalidates stale auto-hide timers
}

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithWindow overrides the correction window duration.
func WithWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// New creates a Controller that sends reassignments to r.
func New(r Reassigner, opts ...Option) *Controller {
	c := &Controller{
		reassigner: r,
		window:     DefaultWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show arms the correction window for cor, replacing any active correction.
func (c *Controller) Show(cor Correction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := cor
	copied.Choices = append([]string(nil), cor.Choices...)
	c.current = &copied
	c.status = fmt.Sprintf("recorded as %s", cor.ToCode)
	c.armTimerLocked(c.window)
}

// Current returns the active correction, if any.
func (c *Controller) Current() (Correction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Correction{}, false
	}
	return *c.current, true
}

// Status returns the display state: the last recorded/updated/failed message.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Undo reassigns the active correction back to its pre-routing station.
func (c *Controller) Undo(ctx context.Context) error {
	return c.move(ctx, func(cor *Correction) (string, bool) {
		return cor.FromCode, true
	})
}

// SwitchNext reassigns to the candidate after ToCode, wrapping at the end
// of the list. An unknown ToCode restarts at the first candidate.
func (c *Controller) SwitchNext(ctx context.Context) error {
	return c.move(ctx, func(cor *Correction) (string, bool) {
		if len(cor.Choices) == 0 {
			return "", false
		}
		next := 0
		for i, code := range cor.Choices {
			if code == cor.ToCode {
				next = (i + 1) % len(cor.Choices)
				break
			}
		}
		return cor.Choices[next], true
	})
}

// Close hides the correction window. Closing an already-idle controller is
// a no-op, as is a timer firing after the operator acted.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hideLocked()
}

// ErrNoCorrection is returned when Undo or SwitchNext is called with no
// active correction (window expired or already resolved).
var ErrNoCorrection = fmt.Errorf("no active correction")

func (c *Controller) move(ctx context.Context, pick func(*Correction) (string, bool)) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoCorrection
	}
	cor := *c.current
	target, ok := pick(&cor)
	if !ok {
		c.mu.Unlock()
		return ErrNoCorrection
	}
	gen := c.generation
	c.mu.Unlock()

	// The write happens outside the lock; the generation check below keeps
	// a slow write from clobbering a newer correction's state.
	err := c.reassigner.ReassignStation(ctx, cor.PassID, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.current == nil || c.current.PassID != cor.PassID {
		return err // a newer correction took the slot; nothing to update
	}
	if err != nil {
		c.status = fmt.Sprintf("update failed: %v", err)
		return err
	}
	c.status = fmt.Sprintf("updated to %s", target)
	c.current = nil
	c.armTimerLocked(successLinger)
	return nil
}

// armTimerLocked (re)starts the auto-hide countdown. Caller holds c.mu.
func (c *Controller) armTimerLocked(d time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return // superseded; firing late is a no-op
		}
		c.hideLocked()
	})
}

// hideLocked clears all window state. Caller holds c.mu.
func (c *Controller) hideLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.current = nil
	c.status = ""
}
