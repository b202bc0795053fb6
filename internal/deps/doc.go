// Package deps checks that the external programs the jukebox runs, chiefly
// the audio engine, can be found and executed.
package deps
