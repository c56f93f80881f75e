// Package clipstore persists encoded clips. Metadata lives in a SQLite
// database; clip payloads are written to flat files next to it so serving a
// clip never loads the database. Clips are immutable once saved.
package clipstore
