package output

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestDepthImagePath(t *testing.T) {
	require.Equal(t, filepath.Join("out", "000042.png"), DepthImagePath("out", 42))
	require.Equal(t, filepath.Join("out", "123456.png"), DepthImagePath("out", 123456))
}

func TestWriteDepthImageSingleChannel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "normalized depth maps")
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 255
	img.Pix[1] = 17

	path, err := WriteDepthImage(dir, 3, img)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "000003.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "expected *image.Gray, got %T", decoded)
	require.Equal(t, []uint8{255, 17}, gray.Pix[:2])
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	summary := NewRunSummary("run-1", "20240101_000000", 0)
	summary.Counts["written"] = 2
	summary.Written = []int{0, 4}

	path, err := WriteSummary(dir, summary)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "run_20240101_000000_summary.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, summary.RunID, decoded.RunID)
	require.Equal(t, []int{0, 4}, decoded.Written)
	require.Equal(t, 2, decoded.Counts["written"])
}

func TestNormalizeJSONValue(t *testing.T) {
	value := map[any]any{
		"type": "frame",
		uint64(1): []any{
			cbor.Tag{Number: 40, Content: []byte{1, 2, 3}},
		},
	}
	normalized := NormalizeJSONValue(value)
	_, err := json.Marshal(normalized)
	require.NoError(t, err)

	m := normalized.(map[string]any)
	require.Equal(t, "frame", m["type"])
	list := m["1"].([]any)
	tag := list[0].(map[string]any)
	require.Equal(t, uint64(40), tag["tag"])
	require.Equal(t, map[string]any{"bytes": 3}, tag["content"])
}

func TestRawLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRawLogWriter(dir, "raw_cbor")
	require.NoError(t, err)
	require.NoError(t, w.Record([]byte("first")))
	require.NoError(t, w.Record([]byte{}))
	require.NoError(t, w.Record([]byte("third")))
	require.NoError(t, w.Close())
	require.Error(t, w.Record([]byte("late")))

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	r, err := NewRawLogReader(bytes.NewReader(data))
	require.NoError(t, err)

	var payloads []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		payloads = append(payloads, string(rec.Payload))
	}
	require.Equal(t, []string{"first", "", "third"}, payloads)
}

func TestRawLogReaderRejectsMagic(t *testing.T) {
	_, err := NewRawLogReader(bytes.NewReader([]byte("OTHERRAW")))
	require.Error(t, err)
}
