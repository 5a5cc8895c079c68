package metrics

// Metadata is descriptive data attached to an instrument at construction.
// The instrument carries it through to collected output without
// interpreting it.
type Metadata struct {
	Description string
	Unit        string
}
