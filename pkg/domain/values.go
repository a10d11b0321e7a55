package domain

import (
	"image"
	"time"
)

// Landmark is a normalized point produced by an inference backend.
// X and Y are in [0,1] image space, Z is backend-specific depth.
type Landmark struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// LandmarkSet is one detected face or hand.
type LandmarkSet []Landmark

// LandmarkSetList is every face or hand detected in a frame.
type LandmarkSetList []LandmarkSet

// Modality names the kind of body part an extractor tracks.
type Modality string

const (
	ModalityFace Modality = "face"
	ModalityHand Modality = "hand"
)

// Metrics is the per-modality motion signal derived from a landmark set.
type Metrics struct {
	Modality Modality `json:"modality"`
	// X and Y locate the modality's primary landmark.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Distance is the raw distance between the modality's landmark pair.
	Distance float64 `json:"distance"`
	// Amount is Distance mapped into [0,1] by the modality's affine+clamp transform.
	Amount float64 `json:"amount"`
}

// Control is the normalized signal set consumed by rendering.
// The zero value is the neutral record.
type Control struct {
	Tilt     float64 `json:"tilt" msgpack:"tilt"`
	Lift     float64 `json:"lift" msgpack:"lift"`
	Pinch    float64 `json:"pinch" msgpack:"pinch"`
	Jaw      float64 `json:"jaw" msgpack:"jaw"`
	Presence float64 `json:"presence" msgpack:"presence"`
	TargetX  float64 `json:"target_x" msgpack:"target_x"`
	TargetY  float64 `json:"target_y" msgpack:"target_y"`
}

// Present reports whether any modality produced a signal this tick.
func (c Control) Present() bool {
	return c.Presence != 0
}

// TrailPoint is one entry of the decaying trail buffer.
type TrailPoint struct {
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	Life float64 `json:"life" msgpack:"life"`
}

// Snapshot is what the terminal node hands to the publisher once per tick.
// Image may be a buffer owned by an upstream node; publishers that retain it
// past the call must copy it.
type Snapshot struct {
	RunID     string       `json:"run_id"`
	Frame     uint64       `json:"frame"`
	Timestamp time.Time    `json:"timestamp"`
	Image     *image.RGBA  `json:"-"`
	Control   Control      `json:"control"`
	Trail     []TrailPoint `json:"trail"`
}
