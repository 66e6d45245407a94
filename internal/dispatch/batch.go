package dispatch

import "enricher/pkg/domain"

// MakeBatches splits domains into contiguous batches of at most size entries,
// preserving order. A non-positive size falls back to domain.DefaultBatchSize.
func MakeBatches(domains []string, size int) []domain.Batch {
	if len(domains) == 0 {
		return nil
	}
	if size <= 0 {
		size = domain.DefaultBatchSize
	}

	batches := make([]domain.Batch, 0, (len(domains)+size-1)/size)
	for start := 0; start < len(domains); start += size {
		end := min(start+size, len(domains))
		batches = append(batches, domain.Batch{
			Index:   len(batches),
			Domains: domains[start:end:end],
		})
	}

	return batches
}
