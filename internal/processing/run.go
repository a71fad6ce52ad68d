package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"synth-depth-go/internal/config"
	"synth-depth-go/internal/framestore"
	"synth-depth-go/internal/output"
	"synth-depth-go/internal/types"
)

type RunConfig struct {
	Start       int
	End         int
	ImageDir    string
	Calibration config.Calibration
}

// ProcessFrame normalizes one frame and writes its visualization when any
// foreground depth survives the clip. Frames without surviving pixels are
// skipped silently.
func ProcessFrame(frame types.Frame, imageDir string, calib config.Calibration) (types.FrameEvent, error) {
	img, stats, err := NormalizeDepth(frame, calib)
	if err != nil {
		return types.FrameEvent{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	event := types.FrameEvent{
		Type:             "frame",
		Index:            frame.Index,
		Status:           types.FrameEmpty,
		Max:              stats.Max,
		ForegroundPixels: stats.ForegroundPixels,
		MeanDepth:        stats.MeanDepth,
	}
	if img == nil {
		return event, nil
	}
	path, err := output.WriteDepthImage(imageDir, frame.Index, img)
	if err != nil {
		return types.FrameEvent{}, err
	}
	log.Printf("Saved normalized image: %s", path)
	event.Status = types.FrameWritten
	event.Path = path
	return event, nil
}

// Run creates ImageDir, then visits every index in [Start, End) in order.
// Missing containers are logged and skipped; any other failure ends the run.
func Run(ctx context.Context, cfg RunConfig, store framestore.Store, events chan<- any) (*Summary, error) {
	if err := cfg.Calibration.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		return nil, err
	}
	summary := NewSummary()
	defer summary.Finish()

	for index := cfg.Start; index < cfg.End; index++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		frame, err := store.Load(index)
		if errors.Is(err, framestore.ErrNotFound) {
			log.Printf("File not found: %s", store.Path(index))
			record(summary, events, types.FrameEvent{Type: "frame", Index: index, Status: types.FrameMissing})
			continue
		}
		if err != nil {
			return summary, err
		}

		event, err := ProcessFrame(frame, cfg.ImageDir, cfg.Calibration)
		if err != nil {
			return summary, err
		}
		record(summary, events, event)
	}
	return summary, nil
}

// ProcessStream handles frames as they arrive until the channel closes or
// ctx is cancelled.
func ProcessStream(ctx context.Context, frames <-chan types.Frame, imageDir string, calib config.Calibration, events chan<- any) (*Summary, error) {
	if err := calib.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, err
	}
	summary := NewSummary()
	defer summary.Finish()

	for {
		select {
		case <-ctx.Done():
			return summary, nil
		case frame, ok := <-frames:
			if !ok {
				return summary, nil
			}
			event, err := ProcessFrame(frame, imageDir, calib)
			if err != nil {
				return summary, err
			}
			record(summary, events, event)
		}
	}
}

func record(summary *Summary, events chan<- any, event types.FrameEvent) {
	summary.Add(event)
	if events == nil {
		return
	}
	select {
	case events <- event:
	default:
	}
}
