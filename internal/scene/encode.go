package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// WritePlan stores the plan as indented JSON at path and as CBOR next to it
// (same name, .cbor extension). It returns the CBOR path.
func WritePlan(path string, plan *Plan) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}

	encoded, err := EncodePlanCBOR(plan)
	if err != nil {
		return "", err
	}
	cborPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".cbor"
	if err := os.WriteFile(cborPath, encoded, 0o644); err != nil {
		return "", err
	}
	return cborPath, nil
}

func EncodePlanCBOR(plan *Plan) ([]byte, error) {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	data, err := mode.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan CBOR: %w", err)
	}
	return data, nil
}

func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plan Plan
	switch filepath.Ext(path) {
	case ".cbor":
		err = cbor.Unmarshal(data, &plan)
	default:
		err = json.Unmarshal(data, &plan)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &plan, nil
}
