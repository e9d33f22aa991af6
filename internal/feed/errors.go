package feed

import (
	"fmt"
	"time"
)

// ConfigError is raised at construction when the provider cannot work
// with the given settings. No request is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("feed config: %s: %s", e.Field, e.Reason)
}

// TransientError covers timeouts, network failures and 5xx responses.
// These are retried with exponential backoff.
type TransientError struct {
	Status int // 0 for transport errors
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient feed error: status %d", e.Status)
	}
	return fmt.Sprintf("transient feed error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError is a 429 from the feed.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("feed rate limited, cooling down %s", e.RetryAfter)
}

// ClientError is a non-retryable 4xx. FilterRejected marks a 400 on a
// request that carried a league filter; the caller falls back to an
// unfiltered request once.
type ClientError struct {
	Status         int
	FilterRejected bool
	Body           string
}

func (e *ClientError) Error() string {
	if e.FilterRejected {
		return fmt.Sprintf("feed rejected league filter: status %d", e.Status)
	}
	return fmt.Sprintf("feed client error: status %d", e.Status)
}

// FormatError is a record that could not be decoded or lacks required fields.
type FormatError struct {
	Record string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Record == "" {
		return "malformed feed record: " + e.Reason
	}
	return fmt.Sprintf("malformed feed record %s: %s", e.Record, e.Reason)
}
