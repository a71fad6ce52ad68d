package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DepthImagePath names the visualization for a frame index with six digits
// of zero padding.
func DepthImagePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%06d.png", index))
}

// WriteDepthImage writes img as a single-channel PNG and returns its path.
func WriteDepthImage(dir string, index int, img *image.Gray) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := DepthImagePath(dir, index)
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
