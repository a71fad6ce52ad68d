package simulator

import (
	"context"
	"math/rand/v2"
	"testing"
)

func TestNewFrameLabelsDiscsAboveGround(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		frame := NewFrame(i, 16, 24, rng)
		if len(frame.Depth) != 16*24 || len(frame.Category) != 16*24 {
			t.Fatalf("unexpected buffer sizes %d/%d", len(frame.Depth), len(frame.Category))
		}
		for p, c := range frame.Category {
			d := frame.Depth[p]
			switch {
			case c == 0 && d != groundDepth:
				t.Fatalf("background pixel %d at depth %v", p, d)
			case c != 0 && (d < 8.1 || d >= groundDepth):
				t.Fatalf("foreground pixel %d at depth %v", p, d)
			case c < 0 || c > 2:
				t.Fatalf("unexpected category %d", c)
			}
		}
	}
}

func TestStreamStopsAfterCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []int
	for frame := range Stream(ctx, 4, 4, 3, 1000) {
		got = append(got, frame.Index)
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("unexpected indices %v", got)
	}
}
