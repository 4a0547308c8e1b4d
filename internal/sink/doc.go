// Package sink persists findings.
//
// A FileSink appends records to one results file in txt, csv or json-lines
// format. Every record is encoded in memory first and then written with a
// single Write call while the sink's mutex is held, so concurrent workers
// never interleave partial records. A crawl has one results file, named
// after its first seed (OpenSeedFile). Tee mirrors findings to secondary
// sinks such as the crawl database.
package sink
