// Package audit records write operations against CMS resources as an
// append-only trail of JSON-line events. Each event carries the action,
// the resource and record ids touched, the outcome, the duration, and
// trace/request correlation ids. Events go to stdout, stderr, or a file,
// and increment a Prometheus counter per action and outcome.
package audit
