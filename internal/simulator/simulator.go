package simulator

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"synth-depth-go/internal/types"
)

const (
	groundDepth = 9.0
	maxDiscs    = 6
)

// NewFrame renders a top-down view of a ground plane at depth 9 with a few
// discs resting on it, labelled category 1 or 2.
func NewFrame(index, rows, cols int, rng *rand.Rand) types.Frame {
	n := rows * cols
	frame := types.Frame{
		Index:    index,
		Rows:     rows,
		Cols:     cols,
		Depth:    make([]float32, n),
		Category: make([]int32, n),
	}
	for i := range frame.Depth {
		frame.Depth[i] = groundDepth
	}
	if n == 0 {
		return frame
	}

	discs := rng.IntN(maxDiscs + 1)
	for d := 0; d < discs; d++ {
		cx := rng.Float64() * float64(cols)
		cy := rng.Float64() * float64(rows)
		radius := 1 + rng.Float64()*math.Max(1, float64(min(rows, cols))/8)
		top := float32(8.1 + rng.Float64()*0.9)
		category := int32(1 + rng.IntN(2))
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				dx := float64(x) - cx
				dy := float64(y) - cy
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				i := y*cols + x
				if top < frame.Depth[i] {
					frame.Depth[i] = top
					frame.Category[i] = category
				}
			}
		}
	}
	return frame
}

// Stream emits count frames (unbounded when count <= 0) at rate frames/sec.
func Stream(ctx context.Context, rows, cols, count int, rate float64) <-chan types.Frame {
	out := make(chan types.Frame)
	go func() {
		defer close(out)
		if rate <= 0 {
			rate = 10
		}
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()

		rng := rand.New(rand.NewPCG(42, uint64(time.Now().UnixNano())))
		for index := 0; count <= 0 || index < count; index++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case out <- NewFrame(index, rows, cols, rng):
			}
		}
	}()
	return out
}
