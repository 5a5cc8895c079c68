package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeSetIncrementCollect(t *testing.T) {
	reg := NewRegistry()
	g := NewInt64In(reg, "/test/values", Metadata{Description: "test gauge"}, StringField("name"))

	g.Set(10, String("a"))
	g.IncrementBy(5, String("a"))
	g.Set(3, String("b"))

	collected := g.Collect()
	assert.Equal(t, GaugeTag, collected.Tag)
	assert.Equal(t, "/test/values", collected.Name)
	assert.Equal(t, []string{"name"}, collected.FieldNames)
	assert.Equal(t, "test gauge", collected.Metadata.Description)

	// Entry order is unspecified; compare as a set.
	values := make(map[string]float64)
	for _, v := range collected.Values {
		require.Len(t, v.LabelValues, 1)
		values[v.LabelValues[0]] = v.Value
	}
	assert.Equal(t, map[string]float64{"a": 15, "b": 3}, values)
}

func TestFloat64GaugeIncrementDecrement(t *testing.T) {
	reg := NewRegistry()
	g := NewFloat64In(reg, "/test/temperature", Metadata{Unit: "celsius"})

	g.IncrementBy(3.5)
	g.IncrementBy(-3.5)
	assert.Equal(t, 0.0, g.Get())

	g.Set(33.5)
	g.Increment()
	g.Decrement()
	assert.Equal(t, 33.5, g.Get())
}

func TestGaugeCellIsolation(t *testing.T) {
	reg := NewRegistry()
	g := NewInt64In(reg, "/test/isolated", Metadata{}, StringField("name"), BoolField("ok"))

	g.Set(7, String("x"), Bool(true))
	g.Set(100, String("x"), Bool(false))

	assert.Equal(t, int64(7), g.Get(String("x"), Bool(true)))
	assert.Equal(t, int64(100), g.Get(String("x"), Bool(false)))
	assert.Equal(t, int64(0), g.Get(String("y"), Bool(true)))
}

func TestGaugeLazyZeroDefault(t *testing.T) {
	reg := NewRegistry()
	g := NewInt64In(reg, "/test/lazy", Metadata{}, IntField("code"))

	// Reading a never-written tuple returns zero and creates the cell.
	assert.Equal(t, int64(0), g.Get(Int(404)))

	collected := g.Collect()
	require.Len(t, collected.Values, 1)
	assert.Equal(t, []string{"404"}, collected.Values[0].LabelValues)
	assert.Equal(t, 0.0, collected.Values[0].Value)
}

func TestGaugeIncrementDecrementInverse(t *testing.T) {
	reg := NewRegistry()
	g := NewInt64In(reg, "/test/inverse", Metadata{})

	g.Set(41)
	g.IncrementBy(17)
	g.DecrementBy(17)
	assert.Equal(t, int64(41), g.Get())
}

func TestGaugeConcurrentIncrement(t *testing.T) {
	const (
		goroutines = 8
		iterations = 5000
	)

	reg := NewRegistry()
	g := NewInt64In(reg, "/test/concurrent", Metadata{}, StringField("name"))

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				g.IncrementBy(1, String("shared"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*iterations), g.Get(String("shared")))
}

func TestGaugeCollectCells(t *testing.T) {
	reg := NewRegistry()
	g := NewFloat64In(reg, "/test/cells", Metadata{}, StringField("name"))

	g.Set(1.5, String("a"))
	g.Set(2.5, String("b"))

	seen := make(map[string]float64)
	g.CollectCells(func(cell Cell[float64], labels []FieldValue) {
		seen[labels[0].String()] = cell.Get()
	})
	assert.Equal(t, map[string]float64{"a": 1.5, "b": 2.5}, seen)
}

func TestGaugeAccessors(t *testing.T) {
	reg := NewRegistry()
	md := Metadata{Description: "open connections", Unit: "1"}
	g := NewInt64In(reg, "/test/accessors", md, StringField("protocol"), IntField("port"))

	assert.Equal(t, GaugeTag, g.Tag())
	assert.Equal(t, "/test/accessors", g.Name())
	assert.Equal(t, []string{"protocol", "port"}, g.FieldNames())
	assert.Equal(t, md, g.Metadata())

	registered, ok := reg.Get("/test/accessors")
	require.True(t, ok)
	assert.Equal(t, g.Name(), registered.Name())
}

func TestGaugeLabelContractPanics(t *testing.T) {
	reg := NewRegistry()
	g := NewInt64In(reg, "/test/contract", Metadata{}, StringField("name"))

	assert.Panics(t, func() { g.Set(1) })
	assert.Panics(t, func() { g.Set(1, Int(3)) })
	assert.Panics(t, func() { g.Set(1, String("a"), String("b")) })
}
