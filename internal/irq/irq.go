// Package irq models the interrupt fabric of a single-core MCU: a vector
// table, a global interrupt-enable flag, and pending state. Hardware (or a
// peripheral model standing in for it) raises vectors; the controller
// dispatches to the handler installed for that vector.
//
// The dispatch rules mirror the silicon: a vector raised while the global
// flag is clear stays pending and is delivered when the flag is next set.
// Handlers run in "interrupt context": they must perform bounded work and
// must not call back into blocking HAL operations.
//
// The execution model is one foreground context preempted by handlers, so
// the table itself is not locked; the global flag is the only
// synchronisation primitive, exactly as on the target hardware.
package irq

import "sync/atomic"

// Vector identifies one interrupt source. Platforms define their own vector
// constants matching the part's vector table.
type Vector uint8

// Handler is an installed interrupt service routine.
type Handler func()

// Controller owns the vector table and the global interrupt-enable flag.
type Controller struct {
	enabled  atomic.Bool
	handlers []Handler
	pending  []atomic.Bool
}

// NewController returns a controller with numVectors empty slots. The
// global flag starts clear, as on a part out of reset.
func NewController(numVectors int) *Controller {
	return &Controller{
		handlers: make([]Handler, numVectors),
		pending:  make([]atomic.Bool, numVectors),
	}
}

// Handle installs h for v, replacing any prior handler. A nil h clears the
// slot; a vector raised with no handler is dropped.
func (c *Controller) Handle(v Vector, h Handler) {
	if int(v) < len(c.handlers) {
		c.handlers[v] = h
	}
}

// Handler returns the handler installed for v, nil if the slot is empty.
// A driver that needs to piggyback on a shared vector reads the current
// handler and installs a wrapper that calls it first.
func (c *Controller) Handler(v Vector) Handler {
	if int(v) < len(c.handlers) {
		return c.handlers[v]
	}
	return nil
}

// Enabled reports the global interrupt-enable flag.
func (c *Controller) Enabled() bool { return c.enabled.Load() }

// Enable sets the global flag and delivers any pending vectors, in vector
// order.
func (c *Controller) Enable() {
	c.enabled.Store(true)
	for v := range c.pending {
		if c.pending[v].Swap(false) {
			c.dispatch(Vector(v))
		}
	}
}

// Disable clears the global flag. Raised vectors pend until Enable.
func (c *Controller) Disable() { c.enabled.Store(false) }

// Critical runs fn with interrupts disabled, restoring the previous state
// afterwards. This is the read-side guard for multi-step state shared with
// handlers (the tick counter is the canonical case).
func (c *Controller) Critical(fn func()) {
	was := c.enabled.Load()
	c.Disable()
	fn()
	if was {
		c.Enable()
	}
}

// Raise delivers v if the global flag is set, otherwise marks it pending.
func (c *Controller) Raise(v Vector) {
	if int(v) >= len(c.handlers) {
		return
	}
	if !c.enabled.Load() {
		c.pending[v].Store(true)
		return
	}
	c.dispatch(v)
}

func (c *Controller) dispatch(v Vector) {
	if h := c.handlers[v]; h != nil {
		h()
	}
}

// Reset clears every handler, pending bit and the global flag. Used by
// platform Deinit paths.
func (c *Controller) Reset() {
	c.enabled.Store(false)
	for i := range c.handlers {
		c.handlers[i] = nil
		c.pending[i].Store(false)
	}
}
