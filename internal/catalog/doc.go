// Package catalog discovers the albums under the music root and the
// spoken-number clips used for announcements.
//
// An album is any directory whose direct children include an audio file;
// nested directories are merged into one flat, id-ordered album list. Album
// ids are paths relative to the root so they stay valid when the root moves.
package catalog
