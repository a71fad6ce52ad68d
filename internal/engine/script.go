package engine

import (
	_ "embed"
	"os"
	"path/filepath"
)

// ScriptName is the file the bundled BlenderProc bridge is written to.
const ScriptName = "render_plan.py"

//go:embed render_plan.py
var renderScript []byte

// WriteScript writes the bundled bridge, which executes a scene plan JSON
// inside BlenderProc, into dir and returns its path.
func WriteScript(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, renderScript, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
