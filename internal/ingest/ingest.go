package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"synth-depth-go/internal/types"
)

const (
	MessageTypeFrame = "frame"

	FieldDepth    = "depth"
	FieldCategory = "category_id_segmaps"
)

// RawRecorder receives every message payload before decoding.
type RawRecorder interface {
	Record(payload []byte) error
}

var (
	decodeFailures atomic.Uint64
	decodeCount    atomic.Uint64
	decodeNanos    atomic.Uint64
)

func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

func DecodeTiming() (uint64, uint64) {
	return decodeCount.Load(), decodeNanos.Load()
}

// Stream returns a channel of frames pulled from a ZMQ PUSH producer.
// Expects CBOR messages shaped like:
// { "type": "frame", "index": <int>, "depth": <tag 40 float>, "category_id_segmaps": <tag 40 int> }
func Stream(ctx context.Context, endpoint string, logEvery int, recorder RawRecorder) (<-chan types.Frame, error) {
	if logEvery < 1 {
		logEvery = 1
	}
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(250 * time.Millisecond); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	limiter := &logLimiter{every: logEvery}
	out := make(chan types.Frame, 16)
	go func() {
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
					continue
				}
				limiter.printf("ingest recv error: %v", err)
				continue
			}
			if recorder != nil {
				if err := recorder.Record(msg); err != nil {
					limiter.printf("raw log write failed: %v", err)
				}
			}

			start := time.Now()
			frame, err := DecodeFrame(msg)
			decodeCount.Add(1)
			decodeNanos.Add(uint64(time.Since(start).Nanoseconds()))
			if err != nil {
				decodeFailures.Add(1)
				limiter.printf("ingest decode skipped message: %v", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- frame:
			}
		}
	}()

	return out, nil
}

// DecodeFrame parses one CBOR frame message.
func DecodeFrame(msg []byte) (types.Frame, error) {
	var payload map[string]any
	if err := cbor.Unmarshal(msg, &payload); err != nil {
		return types.Frame{}, fmt.Errorf("CBOR decode: %w", err)
	}

	msgType, _ := payload["type"].(string)
	if msgType != MessageTypeFrame {
		return types.Frame{}, fmt.Errorf("unexpected message type %q", msgType)
	}

	index, err := toInt(payload["index"])
	if err != nil {
		return types.Frame{}, fmt.Errorf("invalid index: %w", err)
	}

	depthRaw, ok := payload[FieldDepth]
	if !ok {
		return types.Frame{}, fmt.Errorf("missing field %q", FieldDepth)
	}
	categoryRaw, ok := payload[FieldCategory]
	if !ok {
		return types.Frame{}, fmt.Errorf("missing field %q", FieldCategory)
	}

	depthMatrix, err := decodeMultiDimArray(depthRaw)
	if err != nil {
		return types.Frame{}, fmt.Errorf("%s: %w", FieldDepth, err)
	}
	categoryMatrix, err := decodeMultiDimArray(categoryRaw)
	if err != nil {
		return types.Frame{}, fmt.Errorf("%s: %w", FieldCategory, err)
	}
	if depthMatrix.rows != categoryMatrix.rows || depthMatrix.cols != categoryMatrix.cols {
		return types.Frame{}, fmt.Errorf("%w: depth %dx%d, category %dx%d", types.ErrShapeMismatch,
			depthMatrix.rows, depthMatrix.cols, categoryMatrix.rows, categoryMatrix.cols)
	}

	depth, err := depthValues(depthMatrix)
	if err != nil {
		return types.Frame{}, err
	}
	category, err := categoryValues(categoryMatrix)
	if err != nil {
		return types.Frame{}, err
	}

	return types.Frame{
		Index:    index,
		Rows:     depthMatrix.rows,
		Cols:     depthMatrix.cols,
		Depth:    depth,
		Category: category,
	}, nil
}

// EncodeFrame produces the CBOR message DecodeFrame accepts. A non-empty
// algorithm compresses both arrays.
func EncodeFrame(frame types.Frame, algorithm string) ([]byte, error) {
	depth, err := encodeFloat32Matrix(frame.Rows, frame.Cols, frame.Depth, algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldDepth, err)
	}
	category, err := encodeInt32Matrix(frame.Rows, frame.Cols, frame.Category, algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldCategory, err)
	}
	return cbor.Marshal(map[string]any{
		"type":        MessageTypeFrame,
		"index":       frame.Index,
		FieldDepth:    depth,
		FieldCategory: category,
	})
}

// Publisher pushes encoded frames to a bound ZMQ PUSH socket.
type Publisher struct {
	mu        sync.Mutex
	socket    *zmq4.Socket
	algorithm string
}

func NewPublisher(endpoint string, algorithm string) (*Publisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUSH)
	if err != nil {
		return nil, err
	}
	if err := socket.SetSndtimeo(time.Second); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	return &Publisher{socket: socket, algorithm: algorithm}, nil
}

func (p *Publisher) Publish(frame types.Frame) error {
	payload, err := EncodeFrame(frame, p.algorithm)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return errors.New("publisher is closed")
	}
	_, err = p.socket.SendBytes(payload, 0)
	return err
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return nil
	}
	err := p.socket.Close()
	p.socket = nil
	return err
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

type logLimiter struct {
	mu    sync.Mutex
	every int
	count int
}

func (l *logLimiter) printf(format string, args ...any) {
	l.mu.Lock()
	l.count++
	emit := l.count%l.every == 0
	l.mu.Unlock()
	if emit {
		log.Printf(format, args...)
	}
}
