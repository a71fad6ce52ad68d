package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"synth-depth-go/internal/config"
	"synth-depth-go/internal/framestore"
	"synth-depth-go/internal/ingest"
	"synth-depth-go/internal/output"
	"synth-depth-go/internal/processing"
	"synth-depth-go/internal/server"
	"synth-depth-go/internal/simulator"
	"synth-depth-go/internal/types"
)

type metrics struct {
	framesSeen    atomic.Uint64
	framesWritten atomic.Uint64
	framesEmpty   atomic.Uint64
	framesMissing atomic.Uint64
}

func (m *metrics) observe(ev types.FrameEvent) {
	m.framesSeen.Add(1)
	switch ev.Status {
	case types.FrameWritten:
		m.framesWritten.Add(1)
	case types.FrameEmpty:
		m.framesEmpty.Add(1)
	case types.FrameMissing:
		m.framesMissing.Add(1)
	}
}

func (m *metrics) snapshot() map[string]any {
	return map[string]any{
		"frames_seen_total":    m.framesSeen.Load(),
		"frames_written_total": m.framesWritten.Load(),
		"frames_empty_total":   m.framesEmpty.Load(),
		"frames_missing_total": m.framesMissing.Load(),
	}
}

func main() {
	defaults := config.DefaultCalibration()
	var (
		outputDir      = flag.String("output-dir", "output", "Directory holding the hdf5/ input and receiving normalized depth maps")
		format         = flag.String("format", framestore.FormatHDF5, "Per-frame container format: hdf5 or cbor")
		start          = flag.Int("start", 0, "First frame index")
		end            = flag.Int("end", 100, "Frame index to stop before")
		depthOffset    = flag.Float64("depth-offset", defaults.DepthOffset, "Depth subtracted from to invert the map")
		clipMin        = flag.Float64("clip-min", defaults.ClipMin, "Lower clip of the inverted depth")
		clipMax        = flag.Float64("clip-max", defaults.ClipMax, "Upper clip of the inverted depth")
		endpoint       = flag.String("zmq-endpoint", "", "Read frames from this ZMQ endpoint instead of files")
		port           = flag.Int("port", 0, "HTTP port for the live preview (0 disables it)")
		debug          = flag.Bool("debug", false, "Run with simulated frames")
		debugFrames    = flag.Int("debug-frames", 100, "Number of simulated frames")
		debugAcqRate   = flag.Float64("debug-acq-rate", 50.0, "Simulated frame rate (frames/sec)")
		debugRows      = flag.Int("debug-rows", 256, "Simulated frame height")
		debugCols      = flag.Int("debug-cols", 256, "Simulated frame width")
		debugCompress  = flag.String("debug-compression", "zstd", "Compression for simulated frames published to -zmq-endpoint (zstd, s2 or empty)")
		rawLogEnabled  = flag.Bool("raw-log", false, "Write raw CBOR frame messages to disk")
		rawLogDir      = flag.String("raw-log-dir", "rawlog", "Directory for raw ingest logs")
		ingestLogEvery = flag.Int("ingest-log-every", 100, "Log every Nth ingest error")
		writeSummary   = flag.Bool("summary", true, "Write a JSON run summary next to the images")
	)
	flag.Parse()

	cfg := config.AppConfig{
		Port:      *port,
		OutputDir: *outputDir,
		Format:    *format,
		Start:     *start,
		End:       *end,
		Calibration: config.Calibration{
			DepthOffset: *depthOffset,
			ClipMin:     *clipMin,
			ClipMax:     *clipMax,
		},
		Endpoint:         *endpoint,
		Debug:            *debug,
		DebugFrames:      *debugFrames,
		DebugAcqRate:     *debugAcqRate,
		DebugRows:        *debugRows,
		DebugCols:        *debugCols,
		DebugCompression: *debugCompress,
		RawLogEnabled:    *rawLogEnabled,
		RawLogDir:        *rawLogDir,
		WriteSummary:     *writeSummary,
		IngestLogEvery:   *ingestLogEvery,
	}
	if err := cfg.Calibration.Validate(); err != nil {
		log.Fatalf("invalid calibration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m metrics
	live := processing.NewSummary()

	events := make(chan any, 64)
	uiMessages := make(chan any, 64)
	go func() {
		defer close(uiMessages)
		for ev := range events {
			if frameEvent, ok := ev.(types.FrameEvent); ok {
				m.observe(frameEvent)
				live.Add(frameEvent)
			}
			select {
			case uiMessages <- ev:
			default:
			}
		}
	}()

	var serverDone chan struct{}
	if cfg.Port > 0 {
		serverDone = make(chan struct{})
		statusFn := func() map[string]any {
			decoded, nanos := ingest.DecodeTiming()
			status := map[string]any{
				"metrics":                      m.snapshot(),
				"ingest_decode_failures_total": ingest.DecodeFailures(),
				"ingest_decoded_total":         decoded,
			}
			if decoded > 0 {
				status["ingest_decode_avg_ms"] = float64(nanos) / float64(decoded) / 1e6
			}
			return status
		}
		snapshotFn := func() any {
			return types.UISnapshot{Type: "snapshot", Data: live.Snapshot()}
		}
		log.Printf("Starting preview at http://localhost:%d", cfg.Port)
		go func() {
			defer close(serverDone)
			if err := server.Run(ctx, cfg, uiMessages, statusFn, snapshotFn); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()
	} else {
		go func() {
			for range uiMessages {
			}
		}()
	}

	summary, err := run(ctx, cfg, events)
	close(events)
	if err != nil {
		log.Fatalf("depth visualization failed: %v", err)
	}

	log.Printf("processed %d frames: written=%d empty=%d missing=%d in %s",
		summary.Total(),
		summary.Count(types.FrameWritten),
		summary.Count(types.FrameEmpty),
		summary.Count(types.FrameMissing),
		summary.Duration().Round(time.Millisecond),
	)

	if cfg.WriteSummary {
		record := output.NewRunSummary(summary.RunID(), processing.Timestamp(), summary.Duration())
		record.InputDir = cfg.InputDir()
		record.ImageDir = cfg.ImageDir()
		record.Counts = summary.Snapshot().Counts
		record.Written = summary.Written()
		record.Extra = map[string]any{
			"depth_offset": cfg.Calibration.DepthOffset,
			"clip_min":     cfg.Calibration.ClipMin,
			"clip_max":     cfg.Calibration.ClipMax,
			"format":       cfg.Format,
		}
		path, err := output.WriteSummary(cfg.OutputDir, record)
		if err != nil {
			log.Printf("summary write failed: %v", err)
		} else {
			log.Printf("wrote run summary %s", path)
		}
	}

	if serverDone != nil {
		log.Printf("preview still running; interrupt to exit")
		<-serverDone
	}
}

// run picks the frame source: simulator, ZMQ stream or per-frame files.
// In debug mode with an endpoint the simulated frames go through a local
// PUSH socket so the full wire path is exercised.
func run(ctx context.Context, cfg config.AppConfig, events chan<- any) (*processing.Summary, error) {
	switch {
	case cfg.Debug && cfg.Endpoint == "":
		frames := simulator.Stream(ctx, cfg.DebugRows, cfg.DebugCols, cfg.DebugFrames, cfg.DebugAcqRate)
		return processing.ProcessStream(ctx, frames, cfg.ImageDir(), cfg.Calibration, events)
	case cfg.Endpoint != "":
		if cfg.Debug {
			publisher, err := ingest.NewPublisher(cfg.Endpoint, cfg.DebugCompression)
			if err != nil {
				return nil, err
			}
			defer publisher.Close()
			streamCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go publish(streamCtx, cancel, publisher, simulator.Stream(streamCtx, cfg.DebugRows, cfg.DebugCols, cfg.DebugFrames, cfg.DebugAcqRate))
			ctx = streamCtx
		}
		var recorder ingest.RawRecorder
		if cfg.RawLogEnabled {
			writer, err := output.NewRawLogWriter(cfg.RawLogDir, "raw_cbor")
			if err != nil {
				return nil, err
			}
			defer func() {
				if err := writer.Close(); err != nil {
					log.Printf("raw log close failed: %v", err)
				}
			}()
			log.Printf("recording raw messages to %s", writer.Path())
			recorder = writer
		}
		frames, err := ingest.Stream(ctx, cfg.Endpoint, cfg.IngestLogEvery, recorder)
		if err != nil {
			return nil, err
		}
		log.Printf("reading frames from %s", cfg.Endpoint)
		return processing.ProcessStream(ctx, frames, cfg.ImageDir(), cfg.Calibration, events)
	default:
		store, err := framestore.Open(cfg.Format, cfg.InputDir())
		if err != nil {
			return nil, err
		}
		return processing.Run(ctx, processing.RunConfig{
			Start:       cfg.Start,
			End:         cfg.End,
			ImageDir:    cfg.ImageDir(),
			Calibration: cfg.Calibration,
		}, store, events)
	}
}

// publish pushes simulated frames and cancels the stream shortly after the
// last one so the consumer drains and returns.
func publish(ctx context.Context, done context.CancelFunc, publisher *ingest.Publisher, frames <-chan types.Frame) {
	for frame := range frames {
		if err := publisher.Publish(frame); err != nil {
			log.Printf("publish frame %d: %v", frame.Index, err)
		}
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		done()
	}
}
