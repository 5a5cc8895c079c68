package metrics

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64CellBasicOps(t *testing.T) {
	var c Int64Cell

	assert.Equal(t, int64(0), c.Get())

	c.IncrementBy(5)
	assert.Equal(t, int64(5), c.Get())

	c.DecrementBy(2)
	assert.Equal(t, int64(3), c.Get())

	c.Set(-42)
	assert.Equal(t, int64(-42), c.Get())
}

func TestFloat64CellBasicOps(t *testing.T) {
	var c Float64Cell

	assert.Equal(t, float64(0), c.Get())

	c.IncrementBy(3.5)
	assert.Equal(t, 3.5, c.Get())

	c.IncrementBy(-3.5)
	assert.Equal(t, 0.0, c.Get())

	c.Set(-273.15)
	assert.Equal(t, -273.15, c.Get())

	c.DecrementBy(0.85)
	assert.InDelta(t, -274.0, c.Get(), 1e-9)
}

func TestInt64CellSetGetRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 1 << 40}

	var c Int64Cell
	for _, v := range values {
		c.Set(v)
		assert.Equal(t, v, c.Get())
	}
}

func TestFloat64CellSetGetRoundTrip(t *testing.T) {
	values := []float64{0, 1.25, -1e-300, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1)}

	var c Float64Cell
	for _, v := range values {
		c.Set(v)
		assert.Equal(t, v, c.Get())
	}
}

func TestInt64CellConcurrentIncrement(t *testing.T) {
	const (
		goroutines = 8
		iterations = 10000
	)

	var c Int64Cell
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				c.IncrementBy(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*iterations), c.Get())
}

func TestFloat64CellConcurrentIncrement(t *testing.T) {
	const (
		goroutines = 8
		iterations = 10000
	)

	// 0.5 sums exactly in binary floating point, so no update may hide
	// behind rounding error.
	var c Float64Cell
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				c.IncrementBy(0.5)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(goroutines*iterations)*0.5, c.Get())
}
