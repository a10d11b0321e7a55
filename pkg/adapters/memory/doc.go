// Package memory provides in-process implementations of the capture,
// landmarker and publisher ports, for tests and the CLI demo mode.
package memory
