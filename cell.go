package metrics

import (
	"math"
	"sync/atomic"
)

// GaugeTag identifies gauge instruments in collected output.
const GaugeTag = "gauge"

// Value is the set of numeric types a gauge can hold.
type Value interface {
	~int64 | ~float64
}

// Cell is a single atomically-updatable gauge value. Every cell belongs to
// exactly one label tuple of one gauge and stays valid for the gauge's
// lifetime. All methods are safe for concurrent use and updates to the same
// cell are linearizable.
type Cell[V Value] interface {
	IncrementBy(v V)
	DecrementBy(v V)
	Set(v V)
	Get() V
}

// Int64Cell holds an int64 gauge value. Increments use a hardware
// fetch-and-add, so they are wait-free.
type Int64Cell struct {
	v atomic.Int64
}

// IncrementBy adds v to the current value.
func (c *Int64Cell) IncrementBy(v int64) { c.v.Add(v) }

// DecrementBy subtracts v from the current value.
func (c *Int64Cell) DecrementBy(v int64) { c.v.Add(-v) }

// Set replaces the current value.
func (c *Int64Cell) Set(v int64) { c.v.Store(v) }

// Get returns the current value.
func (c *Int64Cell) Get() int64 { return c.v.Load() }

// Float64Cell holds a float64 gauge value as its IEEE-754 bit pattern inside
// an atomic uint64.
type Float64Cell struct {
	bits atomic.Uint64
}

// IncrementBy adds v to the current value with a compare-and-swap retry
// loop: load, compute, swap, and retry if another writer got in between. No
// update is ever lost, but there is no bound on retries under sustained
// contention. Gauge updates are expected to be rare relative to CPU speed,
// so this trade-off is preferred over taking a lock.
func (c *Float64Cell) IncrementBy(v float64) {
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// DecrementBy subtracts v from the current value.
func (c *Float64Cell) DecrementBy(v float64) { c.IncrementBy(-v) }

// Set replaces the current value.
func (c *Float64Cell) Set(v float64) { c.bits.Store(math.Float64bits(v)) }

// Get returns the current value.
func (c *Float64Cell) Get() float64 { return math.Float64frombits(c.bits.Load()) }
