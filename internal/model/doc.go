// Package model defines the core data structures shared by the DataHawk
// crawl engine.
//
// This package contains the following main types:
//   - URLTask: A unit of crawl work owned by the frontier until dequeued
//   - PageResult: The outcome of fetching one URL
//   - Finding: One pattern match extracted from a page
//   - Summary: Aggregate counts returned when a crawl ends
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The frontier, crawler, sink and database packages all exchange
// these types.
package model
