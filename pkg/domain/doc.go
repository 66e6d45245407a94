// Package domain contains the core entities shared by the enrichment
// pipeline: batches of domains submitted to the provider, the records the
// provider returns and the terminal outcome of a batch. The types are free of
// infrastructure concerns so they can be shared across packages.
package domain
