package framestore

import (
	"fmt"

	"gonum.org/v1/hdf5"

	"synth-depth-go/internal/types"
)

const (
	DatasetDepth    = "depth"
	DatasetCategory = "category_id_segmaps"
)

// HDF5Store reads the per-frame containers the renderer writes as
// <dir>/<index>.hdf5.
type HDF5Store struct {
	Dir string
}

func (s HDF5Store) Path(index int) string {
	return containerPath(s.Dir, index, ".hdf5")
}

func (s HDF5Store) Load(index int) (types.Frame, error) {
	path := s.Path(index)
	if err := checkExists(path); err != nil {
		return types.Frame{}, err
	}
	return ReadHDF5(path, index)
}

// ReadHDF5 loads the depth and category datasets of one container. The
// file is closed before returning.
func ReadHDF5(path string, index int) (types.Frame, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return types.Frame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	depthDims, depth, err := readDataset[float32](f, DatasetDepth)
	if err != nil {
		return types.Frame{}, fmt.Errorf("%s: %w", path, err)
	}
	categoryDims, category, err := readDataset[int32](f, DatasetCategory)
	if err != nil {
		return types.Frame{}, fmt.Errorf("%s: %w", path, err)
	}

	if depthDims[0] != categoryDims[0] || depthDims[1] != categoryDims[1] {
		return types.Frame{}, fmt.Errorf("%s: %w: depth %dx%d, category %dx%d", path, types.ErrShapeMismatch,
			depthDims[0], depthDims[1], categoryDims[0], categoryDims[1])
	}

	return types.Frame{
		Index:    index,
		Rows:     depthDims[0],
		Cols:     depthDims[1],
		Depth:    depth,
		Category: category,
	}, nil
}

func readDataset[T float32 | int32](f *hdf5.File, name string) ([2]int, []T, error) {
	var dims [2]int
	if !f.LinkExists(name) {
		return dims, nil, fmt.Errorf("missing dataset %q", name)
	}
	ds, err := f.OpenDataset(name)
	if err != nil {
		return dims, nil, fmt.Errorf("open dataset %q: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	extent, _, err := space.SimpleExtentDims()
	if err != nil {
		return dims, nil, fmt.Errorf("dataset %q extent: %w", name, err)
	}
	if len(extent) != 2 {
		return dims, nil, fmt.Errorf("dataset %q has rank %d, want 2", name, len(extent))
	}
	dims[0], dims[1] = int(extent[0]), int(extent[1])

	data := make([]T, dims[0]*dims[1])
	if len(data) == 0 {
		return dims, data, nil
	}
	if err := ds.Read(&data); err != nil {
		return dims, nil, fmt.Errorf("read dataset %q: %w", name, err)
	}
	return dims, data, nil
}

// WriteHDF5 writes a frame in the layout ReadHDF5 expects.
func WriteHDF5(path string, frame types.Frame) error {
	if len(frame.Depth) != frame.Rows*frame.Cols || len(frame.Category) != frame.Rows*frame.Cols {
		return types.ErrShapeMismatch
	}
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	dims := []uint{uint(frame.Rows), uint(frame.Cols)}
	if err := writeDataset(f, DatasetDepth, hdf5.T_NATIVE_FLOAT, dims, &frame.Depth); err != nil {
		return err
	}
	return writeDataset(f, DatasetCategory, hdf5.T_NATIVE_INT32, dims, &frame.Category)
}

func writeDataset(f *hdf5.File, name string, dtype *hdf5.Datatype, dims []uint, data any) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("dataspace %q: %w", name, err)
	}
	defer space.Close()
	ds, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return fmt.Errorf("create dataset %q: %w", name, err)
	}
	defer ds.Close()
	if err := ds.Write(data); err != nil {
		return fmt.Errorf("write dataset %q: %w", name, err)
	}
	return nil
}
