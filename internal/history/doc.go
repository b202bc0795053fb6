// Package history records which tracks the jukebox played in SQLite.
//
// The Store owns the database connection and schema; Recorder moves plays off
// the playback loop so a slow disk never stalls button handling. The database
// is a convenience log, not playback state: the resume position lives in the
// durable records next to the albums.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package history
