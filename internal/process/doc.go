// Package process manages external child processes: headless Chrome for
// PDF rendering and the kindlegen compiler for MOBI output.
//
// Children are started in their own process group so a timeout or a
// cancelled batch can kill them together with anything they spawned.
package process
