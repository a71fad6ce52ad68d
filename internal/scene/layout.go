package scene

import (
	"fmt"
	"path/filepath"
)

// Layout fixes where a run reads resources and where the engine writes.
type Layout struct {
	Base       string
	Root       string
	Coco       string
	HDF5       string
	Plans      string
	TextureDir string
	ModelDir   string
}

func NewLayout(base string, resources ResourceConfig) Layout {
	root := filepath.Join(base, "output")
	return Layout{
		Base:       base,
		Root:       root,
		Coco:       filepath.Join(root, "coco_data"),
		HDF5:       filepath.Join(root, "hdf5"),
		Plans:      filepath.Join(root, "scene_plans"),
		TextureDir: filepath.Join(base, filepath.FromSlash(resources.TextureDir)),
		ModelDir:   filepath.Join(base, filepath.FromSlash(resources.ModelDir)),
	}
}

func (l Layout) PlanPath(timestamp string) string {
	return filepath.Join(l.Plans, fmt.Sprintf("%s_plan.json", timestamp))
}
