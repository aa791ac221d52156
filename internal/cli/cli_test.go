package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/internal/persistence"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// harness runs the command tree in-process against temporary directories.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
	stdin     string
	extra     []string
}

func newHarness(t *testing.T, extra ...string) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		extra:     extra,
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(h.stdin))
	base := []string{"--config-dir", h.configDir, "--data-dir", h.dataDir}
	cmd.SetArgs(append(append(base, h.extra...), args...))
	err := cmd.Execute()
	h.stdin = ""
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "plotbook %s", strings.Join(args, " "))
	return out
}

func (h *harness) export() *types.Novel {
	h.t.Helper()
	var n types.Novel
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("export", "--format", "json")), &n))
	return &n
}

func TestVersion(t *testing.T) {
	out := newHarness(t).mustRun("version")
	assert.Contains(t, out, "plotbook v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInitWritesConfigOnce(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("init")
	assert.Contains(t, out, "plotbook initialized (workspace backend")

	path := filepath.Join(h.configDir, configFileExt)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: workspace")
	assert.Contains(t, string(data), "mode: deferred")

	require.NoError(t, os.WriteFile(path, []byte("backend: workspace\n# edited\n"), 0o644))
	h.mustRun("init")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# edited")

	_, err = os.Stat(filepath.Join(h.dataDir, "project.json"))
	assert.NoError(t, err)
}

func TestNovelLifecycle(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("novel", "create", "Dune", "--subtitle", "Book one"), `Created novel`)

	var list []types.NovelDescriptor
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("--json", "novel", "list")), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Dune", list[0].Title)
	assert.Equal(t, "Book one", list[0].Subtitle)

	h.mustRun("novel", "rename", "dune", "Dune Messiah")
	var sum novelSummary
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("--json", "novel", "show")), &sum))
	assert.Equal(t, "Dune Messiah", sum.Title)
	assert.Equal(t, "Book one", sum.Subtitle)

	h.stdin = "n\n"
	assert.Contains(t, h.mustRun("novel", "delete", "Dune Messiah"), "Cancelled")
	assert.Contains(t, h.mustRun("novel", "delete", list[0].ID.String(), "--force"), "Deleted novel")
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("--json", "novel", "list")), &list))
	assert.Empty(t, list)
}

// buildCast creates a novel in which Paul is referenced from every place a
// character can be referenced.
func buildCast(h *harness) {
	h.mustRun("novel", "create", "Dune")
	h.mustRun("character", "add", "Paul", "--role", "protagonist")
	h.mustRun("character", "add", "Jessica")
	h.mustRun("scene", "add", "Arrakeen", "--pov", "Paul", "--cast", "Jessica", "--words", "1200")
	h.mustRun("scene", "add", "Sietch Tabr", "--cast", "Jessica")
	h.mustRun("conflict", "add", "Bene Gesserit plans", "--character", "Paul", "--against", "Jessica", "--scene", "Arrakeen", "--intensity", "3")
	h.mustRun("conflict", "add", "Spice economy", "--character", "Jessica", "--type", types.ConflictSociety)
	h.mustRun("plot", "add", "Rise of Muad'Dib", "--character", "Paul")
	h.mustRun("plot", "add", "Mother and son", "--type", types.PlotRelation, "--character", "Jessica", "--relation", "Paul")
	h.mustRun("plot", "link", "Rise of Muad'Dib", "Arrakeen", "--value", "2")
}

func TestCharacterDeleteCascade(t *testing.T) {
	h := newHarness(t)
	buildCast(h)

	before := h.export()
	paul := before.Characters[0]
	jessica := before.Characters[1]
	require.Equal(t, "Paul", paul.Name)
	require.Len(t, before.Conflicts, 2)
	require.Equal(t, paul.ID, before.Scenes[0].PovID)

	h.stdin = "yes\n"
	assert.Contains(t, h.mustRun("character", "delete", "paul"), "Deleted character")

	after := h.export()
	require.Len(t, after.Characters, 1)
	assert.Equal(t, jessica.ID, after.Characters[0].ID)

	require.Len(t, after.Conflicts, 1)
	assert.Equal(t, "Spice economy", after.Conflicts[0].Text)

	arrakeen := after.Scenes[0]
	assert.Equal(t, uuid.Nil, arrakeen.PovID)
	assert.NotContains(t, arrakeen.CharacterIDs, paul.ID)
	assert.Contains(t, arrakeen.CharacterIDs, jessica.ID)
	for _, a := range arrakeen.Agendas {
		assert.NotEqual(t, paul.ID, a.CharacterID)
		assert.Empty(t, a.ConflictRefs)
	}
	require.Len(t, arrakeen.PlotValues, 1, "plot links survive the character")

	require.Len(t, after.Plots, 2)
	assert.Equal(t, uuid.Nil, after.Plots[0].CharacterID)
	assert.Equal(t, jessica.ID, after.Plots[1].CharacterID)
	assert.Equal(t, uuid.Nil, after.Plots[1].RelationCharacterID)
}

func TestDeclinedDeleteChangesNothing(t *testing.T) {
	h := newHarness(t)
	buildCast(h)

	h.stdin = "n\n"
	assert.Contains(t, h.mustRun("character", "delete", "Paul"), "Cancelled")
	h.stdin = ""
	assert.Contains(t, h.mustRun("scene", "delete", "Arrakeen"), "Cancelled")

	n := h.export()
	assert.Len(t, n.Characters, 2)
	assert.Len(t, n.Scenes, 2)
	assert.Len(t, n.Conflicts, 2)
}

func TestFailedConflictAddWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.mustRun("novel", "create", "Dune")
	h.mustRun("character", "add", "Paul")

	_, err := h.run("conflict", "add", "Harkonnen feud", "--character", "Paul", "--scene", "Giedi Prime")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = h.run("conflict", "add", "Harkonnen feud", "--character", "Paul", "--against", "Feyd")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.Empty(t, h.export().Conflicts)
}

func TestSceneAndPlotDelete(t *testing.T) {
	h := newHarness(t, "--yes")
	buildCast(h)

	assert.Contains(t, h.mustRun("scene", "delete", "Sietch Tabr"), "Deleted scene")
	assert.Contains(t, h.mustRun("plot", "delete", "Rise of Muad'Dib"), "Deleted plot")

	n := h.export()
	require.Len(t, n.Scenes, 1)
	assert.Equal(t, "Arrakeen", n.Scenes[0].Title)
	assert.Empty(t, n.Scenes[0].PlotValues)
	require.Len(t, n.Plots, 1)
	assert.Equal(t, "Mother and son", n.Plots[0].Text)
}

func TestCharacterAvatar(t *testing.T) {
	h := newHarness(t)
	h.mustRun("novel", "create", "Dune")
	img := filepath.Join(t.TempDir(), "paul.png")
	require.NoError(t, os.WriteFile(img, []byte("png bytes"), 0o644))

	h.mustRun("character", "add", "Paul", "--avatar", img)
	assert.Contains(t, h.mustRun("character", "list"), "9B")

	h.mustRun("character", "avatar", "Paul", "--clear")
	assert.NotContains(t, h.mustRun("character", "list"), "9B")

	_, err := h.run("character", "avatar", "Paul")
	assert.Error(t, err)
}

func TestNovelSelection(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("character", "add", "Paul")
	assert.ErrorContains(t, err, "no novels yet")

	h.mustRun("novel", "create", "Dune")
	h.mustRun("novel", "create", "Children of Dune")
	_, err = h.run("character", "add", "Leto")
	assert.ErrorContains(t, err, "choose one with --novel")

	h.mustRun("--novel", "Children of Dune", "character", "add", "Leto")
	out := h.mustRun("--novel", "Children of Dune", "character", "list")
	assert.Contains(t, out, "Leto")

	_, err = h.run("--novel", "Messiah", "character", "list")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExportYAML(t *testing.T) {
	h := newHarness(t)
	buildCast(h)

	out := h.mustRun("export")
	assert.Contains(t, out, "title: Dune")
	assert.Contains(t, out, "name: Paul")

	path := filepath.Join(t.TempDir(), "dune.yaml")
	h.mustRun("export", "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))

	_, err = h.run("export", "--format", "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestSQLiteBackend(t *testing.T) {
	h := newHarness(t, "--backend", "sqlite")
	buildCast(h)
	h.stdin = "y\n"
	h.mustRun("character", "delete", "Paul")

	n := h.export()
	assert.Len(t, n.Characters, 1)
	assert.Len(t, n.Conflicts, 1)
	_, err := os.Stat(filepath.Join(h.dataDir, "plotbook.db"))
	assert.NoError(t, err)
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plotbook.prom")
	h := newHarness(t, "--metrics-file", path)
	h.mustRun("novel", "create", "Dune")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plotbook_persistence_flushes_total")
	assert.Contains(t, string(data), "plotbook_persistence_backend_calls_total")
}

func TestConfigFromEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv("PLOTBOOK_PERSISTENCE_MODE", types.ModeImmediate)
	opts := &rootOptions{configDir: h.configDir, dataDir: h.dataDir, v: viper.New()}
	cfg, err := opts.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, types.ModeImmediate, cfg.Persistence.Mode)
	assert.Equal(t, types.DefaultFlushInterval, cfg.Persistence.FlushInterval)

	t.Setenv("PLOTBOOK_PERSISTENCE_MODE", "sometimes")
	opts = &rootOptions{configDir: h.configDir, dataDir: h.dataDir, v: viper.New()}
	_, err = opts.resolveConfig()
	assert.ErrorIs(t, err, types.ErrModeUnknown)
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(h.configDir, 0o755))
	content := "backend: sqlite\npersistence:\n  mode: immediate\n  flush_interval: 5s\n  shutdown_attempts: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, configFileExt), []byte(content), 0o644))

	opts := &rootOptions{configDir: h.configDir, dataDir: h.dataDir, v: viper.New()}
	cfg, err := opts.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, types.ModeImmediate, cfg.Persistence.Mode)
	assert.Equal(t, "5s", cfg.Persistence.FlushInterval.String())
	assert.Equal(t, 3, cfg.Persistence.ShutdownAttempts)
	assert.Equal(t, types.DefaultShutdownDelay, cfg.Persistence.ShutdownDelay)
}

func TestExitCode(t *testing.T) {
	exhausted := fmt.Errorf("saving changes: %w", persistence.ErrShutdownFlushExhausted)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"user error", errors.New("bad flag"), exitUserError},
		{"system error", sysError(errors.New("disk full")), exitSysError},
		{"flush exhausted", fmt.Errorf("wrapped: %w", sysError(exhausted)), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
