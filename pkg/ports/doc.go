/*
Package ports defines the driven ports (interfaces) for the framegraph engine.

These interfaces decouple the graph from the devices and models around it, so
the same pipeline runs against a webcam, a synthetic source in tests, or a
recorded clip.

# Key Interfaces

  - Capture: Supplies the current frame, or reports that none is ready yet.
  - Landmarker: Runs landmark inference for one modality (face or hand).
  - Publisher: Receives the composited frame and control record once per tick.
*/
package ports
