package config

import (
	"fmt"
	"path/filepath"
)

const (
	HDF5DirName  = "hdf5"
	ImageDirName = "normalized depth maps"
)

// Calibration holds the depth inversion constants tuned for the capture
// geometry: inverted = clamp(DepthOffset - depth, ClipMin, ClipMax).
type Calibration struct {
	DepthOffset float64
	ClipMin     float64
	ClipMax     float64
}

func DefaultCalibration() Calibration {
	return Calibration{
		DepthOffset: 9.1,
		ClipMin:     0,
		ClipMax:     1,
	}
}

func (c Calibration) Validate() error {
	if c.ClipMax <= c.ClipMin {
		return fmt.Errorf("clip range [%g, %g] is empty", c.ClipMin, c.ClipMax)
	}
	return nil
}

type AppConfig struct {
	Port             int
	OutputDir        string
	Format           string
	Start            int
	End              int
	Calibration      Calibration
	Endpoint         string
	Debug            bool
	DebugFrames      int
	DebugAcqRate     float64
	DebugRows        int
	DebugCols        int
	DebugCompression string
	RawLogEnabled    bool
	RawLogDir        string
	WriteSummary     bool
	IngestLogEvery   int
}

func (c AppConfig) InputDir() string {
	if c.Format == "cbor" {
		return filepath.Join(c.OutputDir, "cbor")
	}
	return filepath.Join(c.OutputDir, HDF5DirName)
}

func (c AppConfig) ImageDir() string {
	return filepath.Join(c.OutputDir, ImageDirName)
}
