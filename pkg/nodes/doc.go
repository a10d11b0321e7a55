// Package nodes implements the six node variants of the pipeline and the
// factory that builds them from a variant tag and a configuration bag.
//
// Source polls the capture device. The face and hand extractors run landmark
// inference and derive metrics. Overlay draws landmarks over a copy of the
// frame. Mapper turns metrics into a control record. Output keeps the trail
// buffer and publishes one snapshot per tick.
package nodes
