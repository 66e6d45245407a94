package domain

// OutcomeKind is the terminal state of a batch submission.
type OutcomeKind string

const (
	// OutcomeSucceeded indicates the provider answered and the body was parsed.
	OutcomeSucceeded OutcomeKind = "SUCCEEDED"
	// OutcomeFailed indicates every attempt failed; Err holds the last error.
	OutcomeFailed OutcomeKind = "FAILED"
	// OutcomeCancelled indicates the run was interrupted before the batch completed.
	OutcomeCancelled OutcomeKind = "CANCELLED"
)

// Outcome is the result of the attempt sequence for one batch.
type Outcome struct {
	// Batch is the batch the outcome belongs to.
	Batch Batch
	// Kind is the terminal state.
	Kind OutcomeKind
	// Records holds the parsed provider response. Only set for OutcomeSucceeded.
	Records []Record
	// Err is the last error seen. Only set for OutcomeFailed and, when the
	// cancellation interrupted an attempt, for OutcomeCancelled.
	Err error
	// Attempts is the number of requests issued for the batch.
	Attempts int
}

// Succeeded returns a successful outcome for batch.
func Succeeded(batch Batch, records []Record, attempts int) Outcome {
	return Outcome{Batch: batch, Kind: OutcomeSucceeded, Records: records, Attempts: attempts}
}

// Failed returns an exhausted-retry outcome for batch carrying the last error.
func Failed(batch Batch, err error, attempts int) Outcome {
	return Outcome{Batch: batch, Kind: OutcomeFailed, Err: err, Attempts: attempts}
}

// Cancelled returns a cancelled outcome for batch.
func Cancelled(batch Batch, err error, attempts int) Outcome {
	return Outcome{Batch: batch, Kind: OutcomeCancelled, Err: err, Attempts: attempts}
}
