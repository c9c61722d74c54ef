// Package stores provides the SQLite persistence layer for rocketscience.
//
// It holds at most one snapshot per resource: a single company_info row and
// the full launches table, each replaced wholesale on every write. Writers
// notify subscribers of the table they changed once their transaction has
// committed, which lets readers re-query and observe every later snapshot.
package stores
