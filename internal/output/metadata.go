package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

type RunSummary struct {
	RunID      string         `json:"run_id"`
	Timestamp  string         `json:"timestamp"`
	InputDir   string         `json:"input_dir"`
	ImageDir   string         `json:"image_dir"`
	Counts     map[string]int `json:"counts"`
	Written    []int          `json:"written"`
	DurationMS int64          `json:"duration_ms"`
	Extra      map[string]any `json:"extra,omitempty"`
}

func NewRunSummary(runID, timestamp string, duration time.Duration) RunSummary {
	return RunSummary{
		RunID:      runID,
		Timestamp:  timestamp,
		Counts:     map[string]int{},
		DurationMS: duration.Milliseconds(),
	}
}

// WriteSummary stores the run summary as <dir>/run_<timestamp>_summary.json.
func WriteSummary(dir string, summary RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s_summary.json", summary.Timestamp))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// NormalizeJSONValue converts CBOR-decoded values (interface-keyed maps,
// raw byte strings) into values encoding/json accepts.
func NormalizeJSONValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = NormalizeJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = NormalizeJSONValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = NormalizeJSONValue(item)
		}
		return out
	case cbor.Tag:
		return map[string]any{
			"tag":     v.Number,
			"content": NormalizeJSONValue(v.Content),
		}
	case []byte:
		return map[string]any{"bytes": len(v)}
	default:
		return v
	}
}
