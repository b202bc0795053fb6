// Command jukebox runs the jukebox daemon and controls it over its socket.
//
// `jukebox run` starts the player in the foreground. The remaining commands
// (status, pause, next, album, logs, history and friends) talk to a running
// daemon through the JSON-RPC control socket.
package main
