// Package migrations registers every schema migration. Import it for side
// effects wherever migrations run (the CLI and database-backed tests).
package migrations
