// Package observability provides a ready-made metrics extension tracking
// completion lifecycle counts. Register it on a dispatcher to count
// registrations, dispatches (per route), and cancellations.
package observability
