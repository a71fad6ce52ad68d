package types

import "errors"

// Frame is one rendered view as read from a per-frame container.
// Depth and Category are row-major with Rows*Cols entries each.
type Frame struct {
	Index    int       `json:"index"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Depth    []float32 `json:"depth"`
	Category []int32   `json:"category_id_segmaps"`
}

type FrameStatus string

const (
	FrameWritten FrameStatus = "written"
	FrameEmpty   FrameStatus = "empty"
	FrameMissing FrameStatus = "missing"
)

type FrameEvent struct {
	Type             string      `json:"type"`
	Index            int         `json:"index"`
	Status           FrameStatus `json:"status"`
	Path             string      `json:"path,omitempty"`
	Max              float64     `json:"max"`
	ForegroundPixels int         `json:"foreground_pixels"`
	MeanDepth        float64     `json:"mean_depth"`
}

// ErrShapeMismatch reports depth and category arrays of different extents.
var ErrShapeMismatch = errors.New("depth and category shapes differ")
