package framestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"synth-depth-go/internal/types"
)

// ErrNotFound is returned by Load when the container for an index does not exist.
var ErrNotFound = errors.New("frame container not found")

// Store resolves and loads one per-frame container by index.
type Store interface {
	Path(index int) string
	Load(index int) (types.Frame, error)
}

const (
	FormatHDF5 = "hdf5"
	FormatCBOR = "cbor"
)

func Open(format string, dir string) (Store, error) {
	switch format {
	case FormatHDF5, "":
		return HDF5Store{Dir: dir}, nil
	case FormatCBOR:
		return CBORStore{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unknown frame format %q", format)
	}
}

func containerPath(dir string, index int, ext string) string {
	return filepath.Join(dir, strconv.Itoa(index)+ext)
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
