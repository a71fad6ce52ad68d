package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"synth-depth-go/internal/scene"
)

const cocoAnnotationsFile = "coco_annotations.json"

// Preflight checks that every model and texture the plan references exists.
func Preflight(plan *scene.Plan) error {
	seen := make(map[string]bool)
	var errs []error
	check := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("missing resource: %w", err))
		}
	}
	for _, obj := range plan.Objects {
		check(obj.Model)
		check(obj.Material.Texture)
	}
	return errors.Join(errs...)
}

type Outputs struct {
	Indices         []int
	CocoAnnotations bool
}

// ContainerIndices lists the frame indices of <dir>/<index>.hdf5 files in
// ascending order. A missing directory yields no indices.
func ContainerIndices(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []int
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".hdf5" {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".hdf5"))
		if err != nil || index < 0 {
			continue
		}
		out = append(out, index)
	}
	sort.Ints(out)
	return out, nil
}

// NextIndex is the index the engine will use when appending to dir.
func NextIndex(dir string) (int, error) {
	indices, err := ContainerIndices(dir)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, nil
	}
	return indices[len(indices)-1] + 1, nil
}

// VerifyOutputs confirms the engine produced at least one frame container
// beyond those present before the run.
func VerifyOutputs(layout scene.Layout, before int) (Outputs, error) {
	indices, err := ContainerIndices(layout.HDF5)
	if err != nil {
		return Outputs{}, err
	}
	out := Outputs{Indices: indices}
	if _, err := os.Stat(filepath.Join(layout.Coco, cocoAnnotationsFile)); err == nil {
		out.CocoAnnotations = true
	}
	next := 0
	if len(indices) > 0 {
		next = indices[len(indices)-1] + 1
	}
	if next <= before {
		return out, fmt.Errorf("no new frame containers in %s", layout.HDF5)
	}
	return out, nil
}
