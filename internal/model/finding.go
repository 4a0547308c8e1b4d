package model

import "time"

// TimestampLayout is the layout used when findings are serialized.
// It is RFC 3339 with nanosecond precision, always in UTC.
const TimestampLayout = time.RFC3339Nano

// Finding is one extracted match.
// A finding is immutable once created.
type Finding struct {
	// Data is the matched text.
	Data string `json:"data"`

	// PatternName is the pattern that produced the match
	// (email, username, phone, url, ip, or custom).
	PatternName string `json:"pattern,omitempty"`

	// SourceURL is the page the match was found on (final URL after redirects).
	SourceURL string `json:"source_url"`

	// ScrapedAt is when the match was extracted, in UTC.
	ScrapedAt time.Time `json:"scraped_at"`
}

// NewFinding creates a Finding stamped with the given time converted to UTC.
func NewFinding(data, pattern, sourceURL string, at time.Time) Finding {
	return Finding{
		Data:        data,
		PatternName: pattern,
		SourceURL:   sourceURL,
		ScrapedAt:   at.UTC(),
	}
}

// Timestamp returns ScrapedAt formatted with TimestampLayout.
func (f Finding) Timestamp() string {
	return f.ScrapedAt.UTC().Format(TimestampLayout)
}
