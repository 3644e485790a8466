// Package ruv queries the RÚV GraphQL API for programme listings and
// episode stream locations.
//
// The API is reached through persisted queries over HTTP GET. Responses that
// are not usable (transport errors, non-200 status, bodies without a "data"
// object) are retried after a fixed backoff up to a configurable number of
// attempts.
package ruv
