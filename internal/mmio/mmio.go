// Package mmio provides the register cells the platform drivers are written
// against. A cell has volatile get/set semantics: every access goes to the
// cell, nothing is cached. On a hardware build the chip's register block is
// aliased onto the device's I/O space by the platform link step; on host
// builds the cells are plain observable memory, and an optional write hook
// lets a peripheral model stand in for the silicon on the far side of the
// register (set a flag, capture a byte, raise a vector).
//
// Loads and stores are atomic so a model or test driving registers from
// another goroutine cannot tear a value. Hooks run synchronously inside the
// writer's Set call, after the store.
package mmio

import "sync/atomic"

// Reg8 is an 8-bit peripheral register.
type Reg8 struct {
	v    atomic.Uint32
	hook func(v uint8)
}

// Get returns the current register value.
func (r *Reg8) Get() uint8 { return uint8(r.v.Load()) }

// Set writes the register and runs the write hook, if any.
func (r *Reg8) Set(v uint8) {
	r.v.Store(uint32(v))
	if r.hook != nil {
		r.hook(v)
	}
}

// SetBits sets mask bits, read-modify-write.
func (r *Reg8) SetBits(mask uint8) { r.Set(r.Get() | mask) }

// ClearBits clears mask bits, read-modify-write.
func (r *Reg8) ClearBits(mask uint8) { r.Set(r.Get() &^ mask) }

// HasBits reports whether every bit of mask is set.
func (r *Reg8) HasBits(mask uint8) bool { return r.Get()&mask == mask }

// Poke stores a value without running the hook. Peripheral models use it to
// update flag bits from inside their own hook.
func (r *Reg8) Poke(v uint8) { r.v.Store(uint32(v)) }

// PokeBits sets mask bits without running the hook.
func (r *Reg8) PokeBits(mask uint8) { r.v.Store(r.v.Load() | uint32(mask)) }

// PokeClear clears mask bits without running the hook.
func (r *Reg8) PokeClear(mask uint8) { r.v.Store(r.v.Load() &^ uint32(mask)) }

// Hook installs fn as the write hook. Passing nil detaches the model.
func (r *Reg8) Hook(fn func(v uint8)) { r.hook = fn }

// Reg16 is a 16-bit peripheral register (counter, compare, top).
type Reg16 struct {
	v    atomic.Uint32
	hook func(v uint16)
}

func (r *Reg16) Get() uint16 { return uint16(r.v.Load()) }

func (r *Reg16) Set(v uint16) {
	r.v.Store(uint32(v))
	if r.hook != nil {
		r.hook(v)
	}
}

func (r *Reg16) Poke(v uint16)          { r.v.Store(uint32(v)) }
func (r *Reg16) Hook(fn func(v uint16)) { r.hook = fn }

// Reg32 is a 32-bit peripheral register.
type Reg32 struct {
	v    atomic.Uint32
	hook func(v uint32)
}

func (r *Reg32) Get() uint32 { return r.v.Load() }

func (r *Reg32) Set(v uint32) {
	r.v.Store(v)
	if r.hook != nil {
		r.hook(v)
	}
}

func (r *Reg32) SetBits(mask uint32)          { r.Set(r.Get() | mask) }
func (r *Reg32) ClearBits(mask uint32)        { r.Set(r.Get() &^ mask) }
func (r *Reg32) HasBits(mask uint32) bool     { return r.Get()&mask == mask }
func (r *Reg32) Poke(v uint32)                { r.v.Store(v) }
func (r *Reg32) PokeBits(mask uint32)         { r.v.Store(r.v.Load() | mask) }
func (r *Reg32) PokeClear(mask uint32)        { r.v.Store(r.v.Load() &^ mask) }
func (r *Reg32) Hook(fn func(v uint32))       { r.hook = fn }

// Reg64 is a 64-bit register pair (CLINT mtime). Split storage keeps the
// type usable on 32-bit hosts.
type Reg64 struct {
	lo, hi atomic.Uint32
}

func (r *Reg64) Get() uint64 {
	// Hi-lo-hi read: retry if the high word rolled between loads.
	for {
		hi := r.hi.Load()
		lo := r.lo.Load()
		if r.hi.Load() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

func (r *Reg64) Set(v uint64) {
	r.hi.Store(uint32(v >> 32))
	r.lo.Store(uint32(v))
}

// Poke stores a value without running a hook, matching the narrower cells.
// Reg64 carries no hook, so this is Set under the name models expect.
func (r *Reg64) Poke(v uint64) { r.Set(v) }
