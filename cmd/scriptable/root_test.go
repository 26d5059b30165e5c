package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bridger-herman/scriptable-game/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepper = `
module.exports = class Stepper extends Script {
  update() {
    this.transform.position[2] -= 1;
  }
};
`

func writeScene(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "stepper.js"), []byte(stepper), 0644))

	scene := `{
  "game_objects": [
    {"name": "walker", "components": [{"type": "JavaScript", "category": "Script", "properties": {"source": "scripts/stepper.js"}}]},
    {"name": "orbiter", "components": [{"type": "OrbitScript", "category": "Script", "properties": {"radius": 1, "speed": 0}}]},
    {"name": "rock", "position": [3, 0, 0]}
  ]
}`
	path := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(scene), 0644))
	return path
}

func TestRunTicksSceneAndPrintsSummary(t *testing.T) {
	cfg := config.Default()
	cfg.ScenePath = writeScene(t)
	cfg.TickRate = 1000
	cfg.MaxTicks = 3

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	summary := out.String()
	assert.Contains(t, summary, "walker")
	assert.Contains(t, summary, "(0.000, 0.000, -3.000) v4")
	assert.Contains(t, summary, "(1.000, 0.000, 0.000) v4")
	assert.Contains(t, summary, "(3.000, 0.000, 0.000) v1")
}

func TestRunMissingScene(t *testing.T) {
	cfg := config.Default()
	cfg.ScenePath = filepath.Join(t.TempDir(), "nope.json")

	assert.Error(t, run(context.Background(), cfg, &bytes.Buffer{}))
}

func TestListScripts(t *testing.T) {
	dir := filepath.Dir(writeScene(t))

	var out bytes.Buffer
	require.NoError(t, listScripts(&out, filepath.Join(dir, "scripts")))

	assert.Contains(t, out.String(), "RotateScript")
	assert.Contains(t, out.String(), "WanderScript")
	assert.Contains(t, out.String(), "stepper")
}

func TestRunCommandFlags(t *testing.T) {
	scenePath := writeScene(t)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "missing.json"), "--scene", scenePath, "--ticks", "2", "--rate", "500", "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "(0.000, 0.000, -2.000) v3")
}

func TestRunCommandResolvesSceneFromConfigDir(t *testing.T) {
	scenePath := writeScene(t)
	configPath := filepath.Join(filepath.Dir(scenePath), "scriptable.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"scene_path": "scene.json", "tick_rate": 500, "max_ticks": 1, "log_level": "error", "metrics_interval_seconds": 10}`), 0644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--config", configPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "(0.000, 0.000, -1.000) v2")
}

func TestFindAsset(t *testing.T) {
	path := writeScene(t)
	assert.Equal(t, path, findAsset(path))
	assert.Equal(t, "", findAsset(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, "", findAsset(""))
}
