package metrics

// Gauge is a metric instrument whose value can go up or down, partitioned
// into independent cells by the label dimensions declared at construction.
// It is parameterized by the value type, int64 or float64.
//
// Every operation takes one FieldValue per declared field, in declaration
// order. Passing the wrong number or kind of values panics; arity and types
// are a construction-time contract, not a runtime condition. All methods
// are safe for concurrent use from any goroutine.
//
// A gauge is expected to be constructed once, typically at process start,
// and to live for the remainder of the process:
//
//	var temperature = metrics.NewFloat64("/my/cpu/temperature",
//		metrics.Metadata{Description: "CPU temperature", Unit: "celsius"})
//
//	temperature.Set(33.5)
//	temperature.IncrementBy(3.5)
//	temperature.IncrementBy(-3.5)
type Gauge[V Value] struct {
	name     string
	metadata Metadata
	store    *cellStore[V]
}

// NewInt64 builds an int64 gauge and registers it with the default
// registry. Panics if the name is already registered.
func NewInt64(name string, metadata Metadata, fields ...Field) *Gauge[int64] {
	return NewInt64In(DefaultRegistry, name, metadata, fields...)
}

// NewFloat64 builds a float64 gauge and registers it with the default
// registry. Panics if the name is already registered.
func NewFloat64(name string, metadata Metadata, fields ...Field) *Gauge[float64] {
	return NewFloat64In(DefaultRegistry, name, metadata, fields...)
}

// NewInt64In builds an int64 gauge registered in reg.
func NewInt64In(reg *Registry, name string, metadata Metadata, fields ...Field) *Gauge[int64] {
	g := &Gauge[int64]{
		name:     name,
		metadata: metadata,
		store:    newCellStore(fields, func() Cell[int64] { return new(Int64Cell) }),
	}
	reg.MustRegister(g)
	return g
}

// NewFloat64In builds a float64 gauge registered in reg.
func NewFloat64In(reg *Registry, name string, metadata Metadata, fields ...Field) *Gauge[float64] {
	g := &Gauge[float64]{
		name:     name,
		metadata: metadata,
		store:    newCellStore(fields, func() Cell[float64] { return new(Float64Cell) }),
	}
	reg.MustRegister(g)
	return g
}

// Tag returns the instrument kind tag.
func (g *Gauge[V]) Tag() string { return GaugeTag }

// Name returns the metric name.
func (g *Gauge[V]) Name() string { return g.name }

// FieldNames returns the declared field names in order.
func (g *Gauge[V]) FieldNames() []string { return g.store.fieldNames() }

// Metadata returns the metadata attached at construction.
func (g *Gauge[V]) Metadata() Metadata { return g.metadata }

// Increment adds 1 to the cell for labels.
func (g *Gauge[V]) Increment(labels ...FieldValue) {
	g.store.GetOrCreateCell(labels).IncrementBy(1)
}

// IncrementBy adds value to the cell for labels.
func (g *Gauge[V]) IncrementBy(value V, labels ...FieldValue) {
	g.store.GetOrCreateCell(labels).IncrementBy(value)
}

// Decrement subtracts 1 from the cell for labels.
func (g *Gauge[V]) Decrement(labels ...FieldValue) {
	g.store.GetOrCreateCell(labels).DecrementBy(1)
}

// DecrementBy subtracts value from the cell for labels.
func (g *Gauge[V]) DecrementBy(value V, labels ...FieldValue) {
	g.store.GetOrCreateCell(labels).DecrementBy(value)
}

// Set replaces the value of the cell for labels.
func (g *Gauge[V]) Set(value V, labels ...FieldValue) {
	g.store.GetOrCreateCell(labels).Set(value)
}

// Get returns the value of the cell for labels. Reading a label tuple that
// has never been written creates a fresh zero-valued cell, which later
// collections will include.
func (g *Gauge[V]) Get(labels ...FieldValue) V {
	return g.store.GetOrCreateCell(labels).Get()
}

// CollectCells calls fn once per existing (cell, label tuple) pair without
// materializing an intermediate snapshot.
func (g *Gauge[V]) CollectCells(fn func(cell Cell[V], labels []FieldValue)) {
	g.store.ForEachCell(fn)
}

// Collect produces a snapshot with one entry per existing cell. Entry order
// is unspecified.
func (g *Gauge[V]) Collect() CollectedMetric {
	result := CollectedMetric{
		Tag:        GaugeTag,
		Name:       g.name,
		FieldNames: g.FieldNames(),
		Metadata:   g.metadata,
	}
	g.CollectCells(func(cell Cell[V], labels []FieldValue) {
		display := make([]string, len(labels))
		for i, v := range labels {
			display[i] = v.String()
		}
		result.Values = append(result.Values, GaugeValue{
			LabelValues: display,
			Value:       float64(cell.Get()),
		})
	})
	return result
}
