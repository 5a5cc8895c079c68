package metrics

// GaugeValue is one collected cell: the label tuple rendered as display
// strings, one per declared field, and the cell's value at collection time.
// Samples are float64 following the Prometheus convention, so int64 cells
// with magnitudes above 2^53 lose precision here; exact typed reads remain
// available through Gauge.Get.
type GaugeValue struct {
	LabelValues []string
	Value       float64
}

// CollectedMetric is the snapshot an instrument produces on demand. Each
// entry's value is consistent for its own cell but entries are not
// synchronized with each other: collection is not a transactional view
// across cells.
type CollectedMetric struct {
	Tag        string
	Name       string
	FieldNames []string
	Metadata   Metadata
	Values     []GaugeValue
}
