package processing

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"synth-depth-go/internal/config"
	"synth-depth-go/internal/types"
)

// Stats describes the masked, inverted depth of one frame.
type Stats struct {
	Max              float64
	ForegroundPixels int
	MeanDepth        float64
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ForegroundMask marks every pixel whose category is not background (0).
func ForegroundMask(category []int32) []bool {
	mask := make([]bool, len(category))
	for i, c := range category {
		mask[i] = c != 0
	}
	return mask
}

// InvertClip returns clamp(offset - depth, min, max) as a rows x cols matrix,
// or nil for a frame without pixels. The subtraction runs in float32 so
// calibrated values line up with the float32 depth buffers the renderer writes.
func InvertClip(frame types.Frame, calib config.Calibration) (*mat.Dense, error) {
	if err := checkShape(frame); err != nil {
		return nil, err
	}
	if frame.Rows == 0 || frame.Cols == 0 {
		return nil, nil
	}
	offset := float32(calib.DepthOffset)
	lo, hi := float32(calib.ClipMin), float32(calib.ClipMax)
	data := make([]float64, len(frame.Depth))
	for i, d := range frame.Depth {
		data[i] = float64(Clamp(offset-d, lo, hi))
	}
	return mat.NewDense(frame.Rows, frame.Cols, data), nil
}

// NormalizeDepth inverts, clips and masks the depth channel and quantizes it
// to 8 bits. The returned image is nil when no pixel is above zero.
func NormalizeDepth(frame types.Frame, calib config.Calibration) (*image.Gray, Stats, error) {
	if err := checkShape(frame); err != nil {
		return nil, Stats{}, err
	}
	inverted, err := InvertClip(frame, calib)
	if err != nil || inverted == nil {
		return nil, Stats{}, err
	}

	mask := ForegroundMask(frame.Category)
	cols := frame.Cols
	var masked mat.Dense
	masked.Apply(func(i, j int, v float64) float64 {
		if !mask[i*cols+j] {
			return 0
		}
		return v
	}, inverted)

	foreground := make([]float64, 0, len(mask))
	for i, ok := range mask {
		if ok {
			foreground = append(foreground, float64(frame.Depth[i]))
		}
	}

	stats := Stats{
		Max:              mat.Max(&masked),
		ForegroundPixels: len(foreground),
	}
	if len(foreground) > 0 {
		stats.MeanDepth = stat.Mean(foreground, nil)
	}
	if !(stats.Max > 0) {
		return nil, stats, nil
	}
	return quantize(&masked), stats, nil
}

// quantize scales by 255 and truncates, saturating outside [0, 255].
func quantize(m *mat.Dense) *image.Gray {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := float32(m.At(y, x)) * 255
			switch {
			case v <= 0 || math.IsNaN(float64(v)):
				v = 0
			case v > 255:
				v = 255
			}
			img.Pix[y*img.Stride+x] = uint8(v)
		}
	}
	return img
}

func checkShape(frame types.Frame) error {
	n := frame.Rows * frame.Cols
	if frame.Rows < 0 || frame.Cols < 0 || len(frame.Depth) != n || len(frame.Category) != n {
		return fmt.Errorf("%w: %dx%d with %d depth and %d category values", types.ErrShapeMismatch,
			frame.Rows, frame.Cols, len(frame.Depth), len(frame.Category))
	}
	return nil
}
