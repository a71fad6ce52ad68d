package framestore

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"synth-depth-go/internal/compression"
	"synth-depth-go/internal/types"
)

func sampleFrame(index int) types.Frame {
	return types.Frame{
		Index:    index,
		Rows:     2,
		Cols:     3,
		Depth:    []float32{9.1, 8.1, 8.5, 9.0, 7.0, 10.0},
		Category: []int32{1, 0, 2, 2, 1, 0},
	}
}

func TestHDF5StoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := HDF5Store{Dir: dir}
	if got, want := store.Path(4), filepath.Join(dir, "4.hdf5"); got != want {
		t.Fatalf("unexpected path %q want %q", got, want)
	}

	frame := sampleFrame(4)
	if err := WriteHDF5(store.Path(4), frame); err != nil {
		t.Fatalf("WriteHDF5: %v", err)
	}

	got, err := store.Load(4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, frame) {
		t.Fatalf("round trip mismatch: got %#v want %#v", got, frame)
	}
}

func TestCBORStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := CBORStore{Dir: dir}

	frame := sampleFrame(12)
	if err := WriteCBOR(store.Path(2), frame, compression.AlgorithmZstd); err != nil {
		t.Fatalf("WriteCBOR: %v", err)
	}

	got, err := store.Load(2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	frame.Index = 2
	if !reflect.DeepEqual(got, frame) {
		t.Fatalf("round trip mismatch: got %#v want %#v", got, frame)
	}
}

func TestMissingContainer(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{FormatHDF5, FormatCBOR} {
		store, err := Open(format, dir)
		if err != nil {
			t.Fatalf("Open(%q): %v", format, err)
		}
		if _, err := store.Load(0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", format, err)
		}
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	if _, err := Open("npz", t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestWriteHDF5RejectsShapeMismatch(t *testing.T) {
	frame := sampleFrame(0)
	frame.Category = frame.Category[:2]
	if err := WriteHDF5(filepath.Join(t.TempDir(), "0.hdf5"), frame); !errors.Is(err, types.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}
