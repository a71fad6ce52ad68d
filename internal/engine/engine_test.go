package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synth-depth-go/internal/scene"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestRunnerArgs(t *testing.T) {
	r := Runner{Command: `blenderproc run "render plan.py" --custom-blender-path /opt/blender`}
	args, err := r.Args("/w/output/scene_plans/p.json", "/w")
	require.NoError(t, err)
	require.Equal(t, []string{
		"blenderproc", "run", "render plan.py", "--custom-blender-path", "/opt/blender",
		"/w/output/scene_plans/p.json", "/w",
	}, args)

	args, err = Runner{Command: "blenderproc run", Script: "/w/render_plan.py"}.Args("plan.json", "/w")
	require.NoError(t, err)
	require.Equal(t, []string{"blenderproc", "run", "/w/render_plan.py", "plan.json", "/w"}, args)

	_, err = Runner{Command: "   "}.Args("p", "b")
	require.Error(t, err)
	_, err = Runner{Command: `run "unterminated`}.Args("p", "b")
	require.Error(t, err)
}

func TestRunnerRelaysOutput(t *testing.T) {
	buf := captureLog(t)
	r := Runner{Command: `sh -c 'echo plan=$0 base=$1; echo warn >&2'`}
	require.NoError(t, r.Run(context.Background(), "plan.json", "/base"))
	require.Contains(t, buf.String(), "engine: plan=plan.json base=/base")
	require.Contains(t, buf.String(), "engine stderr: warn")
}

func TestRunnerReportsExitStatus(t *testing.T) {
	captureLog(t)
	err := Runner{Command: `sh -c 'exit 3'`}.Run(context.Background(), "p", "b")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "status 3"), err.Error())
}

func TestPreflight(t *testing.T) {
	base := t.TempDir()
	cfg := scene.DefaultConfig()
	layout := scene.NewLayout(base, cfg.Resources)
	plan, err := scene.Generate(cfg, layout)
	require.NoError(t, err)
	require.Error(t, Preflight(plan))

	require.NoError(t, os.MkdirAll(layout.TextureDir, 0o755))
	require.NoError(t, os.MkdirAll(layout.ModelDir, 0o755))
	for _, name := range []string{"metallic_grid.jpg", "black_metal.jpg", "brushed-metal-texture.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.TextureDir, name), nil, 0o644))
	}
	for _, name := range []string{"1701623.obj", "screw.obj"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.ModelDir, name), nil, 0o644))
	}
	require.NoError(t, Preflight(plan))
}

func TestContainerIndicesAndVerify(t *testing.T) {
	layout := scene.NewLayout(t.TempDir(), scene.DefaultConfig().Resources)

	next, err := NextIndex(layout.HDF5)
	require.NoError(t, err)
	require.Equal(t, 0, next)
	_, err = VerifyOutputs(layout, next)
	require.Error(t, err)

	require.NoError(t, os.MkdirAll(layout.HDF5, 0o755))
	for _, name := range []string{"0.hdf5", "2.hdf5", "10.hdf5", "notes.txt", "x.hdf5"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.HDF5, name), nil, 0o644))
	}
	require.NoError(t, os.MkdirAll(layout.Coco, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.Coco, "coco_annotations.json"), []byte("{}"), 0o644))

	indices, err := ContainerIndices(layout.HDF5)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 10}, indices)

	out, err := VerifyOutputs(layout, next)
	require.NoError(t, err)
	require.True(t, out.CocoAnnotations)
	require.Equal(t, []int{0, 2, 10}, out.Indices)

	_, err = VerifyOutputs(layout, 11)
	require.Error(t, err)
}

func TestRunnerArgsResolveBundledScript(t *testing.T) {
	layout := scene.NewLayout(t.TempDir(), scene.DefaultConfig().Resources)
	script, err := WriteScript(layout.Plans)
	require.NoError(t, err)

	args, err := Runner{Command: "blenderproc run", Script: script}.Args(layout.PlanPath("20240101_000000"), layout.Base)
	require.NoError(t, err)
	require.Len(t, args, 5)

	info, err := os.Stat(args[2])
	require.NoError(t, err)
	require.False(t, info.IsDir())
	data, err := os.ReadFile(args[2])
	require.NoError(t, err)
	require.Equal(t, renderScript, data)
	require.Contains(t, string(data), "write_hdf5")
	require.Contains(t, string(data), "write_coco_annotations")
}

func TestPlanCarriesFieldsReadByScript(t *testing.T) {
	cfg := scene.DefaultConfig()
	layout := scene.NewLayout(t.TempDir(), cfg.Resources)
	plan, err := scene.Generate(cfg, layout)
	require.NoError(t, err)
	path := layout.PlanPath("20240101_000000")
	_, err = scene.WritePlan(path, plan)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	sections := map[string][]string{
		"light":   {"type", "location", "energy"},
		"camera":  {"width", "height", "position", "rotation"},
		"physics": {"min_simulation_time", "max_simulation_time", "check_object_interval"},
		"render":  {"depth_antialiasing", "transparency", "segmentation_map_by"},
		"outputs": {"coco_dir", "hdf5_dir", "append_to_existing"},
	}
	script := string(renderScript)
	for section, keys := range sections {
		m, ok := doc[section].(map[string]any)
		require.True(t, ok, section)
		for _, key := range keys {
			require.Contains(t, m, key, "%s.%s", section, key)
			require.Contains(t, script, `"`+key+`"`)
		}
	}

	objects, ok := doc["objects"].([]any)
	require.True(t, ok)
	for _, raw := range objects {
		obj := raw.(map[string]any)
		for _, key := range []string{"name", "kind", "mesh_part", "category_id", "location", "rotation", "scale", "material", "rigid_body", "helper"} {
			require.Contains(t, obj, key)
			require.Contains(t, script, `"`+key+`"`)
		}
		if obj["kind"] == scene.KindMesh {
			require.Contains(t, obj, "model")
		} else {
			require.Contains(t, obj, "shape")
		}
	}
	outputs := doc["outputs"].(map[string]any)
	require.Equal(t, layout.HDF5, outputs["hdf5_dir"])
	require.Equal(t, layout.Coco, outputs["coco_dir"])
}

func TestRunnerSurvivesOverlongLine(t *testing.T) {
	buf := captureLog(t)
	r := Runner{Command: `sh -c 'head -c 2000000 /dev/zero | tr "\0" a; echo; head -c 2000000 /dev/zero; echo done >&2'`}

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), "plan.json", "/base") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatalf("engine run did not return")
	}
	require.Contains(t, buf.String(), "engine: relay stopped")
	require.Contains(t, buf.String(), "engine stderr: done")
}
