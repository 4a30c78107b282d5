// Package store archives journal history in SQLite.
//
// The in-memory journal ring only holds the changes a client has not
// fetched yet. The archive keeps every change record of a run so that
// `ream history` can replay a variable after the fact.
//
// # Tables
//
//   - runs: one row per controller start, with the journal schema JSON and
//     the number of records the archiver had to drop
//   - records: change records (timestamp, group, entry, 8 data bytes)
//
// Records are read back in insertion order (ORDER BY id ASC).
//
// # Database Configuration
//
// Pragmas are passed in the driver DSN so every connection gets them:
// WAL journal, synchronous=NORMAL, a 5 s busy timeout and foreign keys.
// schema.sql is layout version 1, recorded in user_version.
//
// Writes happen on the Archiver goroutine, never in the tick.
package store
