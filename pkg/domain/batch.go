package domain

// DefaultBatchSize is the maximum number of domains submitted in one request.
const DefaultBatchSize = 50

// Batch is an ordered group of canonical domains submitted together in a
// single provider request.
type Batch struct {
	// Index is the 0-based position of the batch in submission order. It is
	// used for logging and correlation only.
	Index int
	// Domains holds at most the configured batch size of canonical domains.
	Domains []string
}

// Number returns the 1-based batch number used in diagnostics.
func (b Batch) Number() int { return b.Index + 1 }
