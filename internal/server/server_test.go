package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"synth-depth-go/internal/config"
	"synth-depth-go/internal/types"
)

func testConfig(outputDir string) config.AppConfig {
	return config.AppConfig{
		Port:        9999,
		OutputDir:   outputDir,
		Format:      "hdf5",
		Start:       0,
		End:         100,
		Calibration: config.DefaultCalibration(),
	}
}

func TestHandleConfig(t *testing.T) {
	srv := New(testConfig("out"), nil, nil)

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload["depth_offset"].(float64) != 9.1 {
		t.Fatalf("unexpected depth_offset: %v", payload["depth_offset"])
	}
	if payload["end"].(float64) != 100 {
		t.Fatalf("unexpected end: %v", payload["end"])
	}
	if payload["port"].(float64) != 9999 {
		t.Fatalf("unexpected port: %v", payload["port"])
	}
	if payload["image_dir"].(string) != filepath.Join("out", "normalized depth maps") {
		t.Fatalf("unexpected image_dir: %v", payload["image_dir"])
	}
}

func TestHandleStatusAddsClientCount(t *testing.T) {
	srv := New(testConfig("out"), func() map[string]any {
		return map[string]any{"state": "running"}
	}, nil)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest("GET", "/status", nil))

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["state"] != "running" {
		t.Fatalf("unexpected state: %v", payload["state"])
	}
	if payload["ws_clients"].(float64) != 0 {
		t.Fatalf("unexpected ws_clients: %v", payload["ws_clients"])
	}
}

func TestFramesRouteServesImages(t *testing.T) {
	outputDir := t.TempDir()
	cfg := testConfig(outputDir)
	if err := os.MkdirAll(cfg.ImageDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.ImageDir(), "000001.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	handler, err := New(cfg, nil, nil).Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/frames/000001.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "png" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	srv := New(testConfig(t.TempDir()), nil, func() any {
		return types.UISnapshot{Type: "snapshot"}
	})
	handler, err := srv.Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages := make(chan any, 1)
	go srv.Broadcast(ctx, messages)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello map[string]any
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read config: %v", err)
	}
	if hello["type"] != "config" {
		t.Fatalf("unexpected first message: %v", hello)
	}

	if err := conn.WriteJSON(map[string]any{"type": "snapshot_request"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var snapshot map[string]any
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot["type"] != "snapshot" {
		t.Fatalf("unexpected snapshot: %v", snapshot)
	}

	messages <- types.FrameEvent{Type: "frame", Index: 3, Status: types.FrameWritten}
	var event map[string]any
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event["type"] != "frame" || event["index"].(float64) != 3 {
		t.Fatalf("unexpected event: %v", event)
	}
}
