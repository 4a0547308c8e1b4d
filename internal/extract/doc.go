// Package extract finds sensitive data in page text.
//
// A crawl query is resolved once, before crawling starts, into a Query:
// either one of the named built-in patterns, every built-in pattern, or a
// caller supplied regular expression. Resolving early means an invalid
// expression is reported as a configuration error instead of once per page.
//
// The built-in patterns are intentionally loose. No semantic validation is
// performed on matches, so false positives are expected.
package extract
