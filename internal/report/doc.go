// Package report renders stored crawl runs.
//
// A RunReport is assembled from the crawl database with Build and written by
// one of the Writer implementations:
//   - MarkdownWriter: shareable Markdown, optionally rendered for the terminal
//   - JSONWriter: structured output for other tools
//   - SimpleWriter: plain text for pipes and logs
//
// Writers implement the Writer interface, so they can be composed with
// MultiWriter.
package report
