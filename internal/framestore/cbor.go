package framestore

import (
	"fmt"
	"os"

	"synth-depth-go/internal/ingest"
	"synth-depth-go/internal/types"
)

// CBORStore reads <dir>/<index>.cbor files, each holding one frame message.
type CBORStore struct {
	Dir string
}

func (s CBORStore) Path(index int) string {
	return containerPath(s.Dir, index, ".cbor")
}

func (s CBORStore) Load(index int) (types.Frame, error) {
	path := s.Path(index)
	if err := checkExists(path); err != nil {
		return types.Frame{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Frame{}, err
	}
	frame, err := ingest.DecodeFrame(data)
	if err != nil {
		return types.Frame{}, fmt.Errorf("%s: %w", path, err)
	}
	// the file name is authoritative for the frame index
	frame.Index = index
	return frame, nil
}

func WriteCBOR(path string, frame types.Frame, algorithm string) error {
	payload, err := ingest.EncodeFrame(frame, algorithm)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
