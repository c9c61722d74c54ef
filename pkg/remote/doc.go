// Package remote fetches company and launch data from the SpaceX REST API.
//
// Every call returns an outcome.Outcome and never an error value: transport
// problems become network failures, non-2xx answers and empty 2xx bodies
// become API failures, and bodies that cannot be decoded become unknown
// failures. The client negotiates brotli and gzip compression and decodes
// both itself.
package remote
