// Package detection provides face/gaze and object sampling over a live
// video frame source using computer vision, plus mock and simulated
// samplers for tests and demos.
package detection

import (
	"context"
	"time"
)

// BoundingBox is a detection box in normalized image coordinates (0-1).
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center point of the box.
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the area of the box.
func (b BoundingBox) Area() float64 {
	return b.W * b.H
}

// FaceSample is one best-effort presence/gaze observation.
type FaceSample struct {
	FaceCount   int       `json:"face_count"`
	LookingAway bool      `json:"looking_away"`
	Confidence  float64   `json:"confidence"`
	ObservedAt  time.Time `json:"observed_at"`
}

// ObjectSample is one detected object in a frame.
type ObjectSample struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// FrameSource supplies raw video frames on demand. Camera capture lives
// behind this boundary; the samplers only ever see JPEG bytes.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// FaceSampler produces presence/gaze samples.
type FaceSampler interface {
	// SampleFaceAndGaze captures a frame and returns a best-effort
	// presence/gaze observation.
	SampleFaceAndGaze(ctx context.Context) (FaceSample, error)

	// Close releases resources
	Close() error
}

// ObjectSampler produces object detections.
type ObjectSampler interface {
	// SampleObjects captures a frame and returns detected objects.
	SampleObjects(ctx context.Context) ([]ObjectSample, error)

	// Close releases resources
	Close() error
}

// face is an internal face detection with its box and score.
type face struct {
	Box        BoundingBox
	Confidence float64
}

// selectBest picks the most trustworthy face from multiple detections.
// Priority: confidence * 0.7 + area * 0.3.
func selectBest(faces []face) *face {
	if len(faces) == 0 {
		return nil
	}
	if len(faces) == 1 {
		return &faces[0]
	}

	maxArea := 0.0
	for _, f := range faces {
		if f.Box.Area() > maxArea {
			maxArea = f.Box.Area()
		}
	}

	bestScore := -1.0
	var best *face
	for i := range faces {
		score := faces[i].Confidence*0.7 + (faces[i].Box.Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}
	return best
}
