// Package utils holds small helpers shared by the retrieval and ingestion
// pipelines.
//
// Worker goroutines started through Go convert a panic into a *PanicError
// returned from the errgroup, so one bad record or driver fault fails the
// request instead of the process.
package utils
