package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erkit/pkg/diagram/diagramtest"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/errors"
	erio "github.com/matzehuels/erkit/pkg/io"
)

// setup writes the reference diagram to a temp file and isolates config and
// cache directories.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "scenario.json")
	m := er.New(diagramtest.Scenario(), er.Options{Logger: log.New(io.Discard)})
	if err := erio.SaveFile(m, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func xOf(t *testing.T, path, id string) float64 {
	t.Helper()
	m, err := erio.LoadFile(path, er.Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	return diagramtest.MustGet(m.Engine(), id).Bounds.X
}

func TestInspect(t *testing.T) {
	path := setup(t)
	out, err := run(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{diagramtest.Container, diagramtest.ChildA1, "CompositeAttribute", "8 elements", "1 containers"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestArrangeThenMove(t *testing.T) {
	path := setup(t)
	if _, err := run(t, "arrange", path); err != nil {
		t.Fatalf("arrange: %v", err)
	}
	if x := xOf(t, path, diagramtest.ChildA2); x != 178 {
		t.Errorf("A2.x after arrange = %v, want 178", x)
	}

	out, err := run(t, "move", path, diagramtest.Container, "--dx", "50")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "move: allow") {
		t.Errorf("move output = %q", out)
	}
	if x := xOf(t, path, diagramtest.ChildA1); x != 160 {
		t.Errorf("A1.x = %v, want 160", x)
	}
	if x := xOf(t, path, diagramtest.ChildA2); x != 228 {
		t.Errorf("A2.x = %v, want 228", x)
	}
}

func TestMoveChildDenied(t *testing.T) {
	path := setup(t)
	before, _ := os.ReadFile(path)
	out, err := run(t, "move", path, diagramtest.ChildA1, "--dx", "5")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "move: deny") {
		t.Errorf("move output = %q, want deny", out)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("denied move rewrote the file")
	}
}

func TestDeleteAllOrNothing(t *testing.T) {
	path := setup(t)
	out, err := run(t, "delete", path, diagramtest.ChildA1, diagramtest.FreeEntity)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "delete: deny") {
		t.Errorf("delete output = %q, want deny", out)
	}

	output := filepath.Join(t.TempDir(), "out.json")
	if _, err := run(t, "delete", path, diagramtest.FreeEntity, "-o", output); err != nil {
		t.Fatalf("delete: %v", err)
	}
	data, _ := os.ReadFile(output)
	if strings.Contains(string(data), diagramtest.FreeEntity) {
		t.Error("deleted entity still in output")
	}
}

func TestCompositeLocked(t *testing.T) {
	path := setup(t)
	_, err := run(t, "composite", path, diagramtest.Container, "false")
	if !errors.Is(err, errors.ErrCodeCompositeLocked) {
		t.Errorf("composite false = %v, want COMPOSITE_LOCKED", err)
	}
	if _, err := run(t, "composite", path, diagramtest.Container, "maybe"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("composite maybe = %v, want INVALID_INPUT", err)
	}
}

func TestSyncImport(t *testing.T) {
	path := setup(t)
	out, err := run(t, "sync", "import", path)
	if err != nil {
		t.Fatalf("sync import: %v", err)
	}
	var views []importView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(views) != 8 {
		t.Fatalf("len(views) = %d, want 8", len(views))
	}
	for _, v := range views {
		if v.ID == diagramtest.Container && (v.Kind != "CompositeAttribute" || v.Props["name"] != "address") {
			t.Errorf("container view = %+v", v)
		}
	}
}

func TestSyncExportWritesEveryAlias(t *testing.T) {
	path := setup(t)
	output := filepath.Join(t.TempDir(), "out.json")
	if _, err := run(t, "sync", "export", path, "-o", output); err != nil {
		t.Fatalf("sync export: %v", err)
	}
	data, _ := os.ReadFile(output)
	for _, want := range []string{`"er:erType"`, `"ns0:erType"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("export missing %s", want)
		}
	}
}

func TestValidate(t *testing.T) {
	good := setup(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte(`{"elements":[{"id":""}]}`), 0o644)

	out, err := run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v\n%s", err, out)
	}
	out, err = run(t, "validate", good, bad)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("validate bad = %v, want INVALID_FORMAT", err)
	}
	if !strings.Contains(out, bad) {
		t.Errorf("output does not name the failing file:\n%s", out)
	}
}

func TestValidateStrictMismatches(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "mismatch.json")
	os.WriteFile(path, []byte(`{"elements":[{"id":"E1","type":"shape","width":10,"height":10,
		"attrs":{"er:erType":"Entity","er:isWeak":"sometimes"}}]}`), 0o644)

	if out, err := run(t, "validate", path); err != nil || !strings.Contains(out, "1 attribute mismatches") {
		t.Errorf("validate = %v\n%s", err, out)
	}
	if _, err := run(t, "validate", "--strict", path); err == nil {
		t.Error("validate --strict succeeded with mismatches")
	}
}

func TestRenderDOT(t *testing.T) {
	path := setup(t)
	output := filepath.Join(t.TempDir(), "out.dot")
	if _, err := run(t, "render", path, "-f", "dot", "-o", output); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, _ := os.ReadFile(output)
	if !strings.HasPrefix(string(data), "graph ER {") {
		t.Errorf("dot output = %.40q", data)
	}
	if _, err := run(t, "render", path, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("render gif = %v, want INVALID_INPUT", err)
	}
}

func TestConfigFlag(t *testing.T) {
	path := setup(t)
	cfg := filepath.Join(t.TempDir(), "erkit.toml")
	os.WriteFile(cfg, []byte("[layout]\nspacing = 0\n"), 0o644)

	if _, err := run(t, "--config", cfg, "arrange", path); err != nil {
		t.Fatalf("arrange: %v", err)
	}
	if x := xOf(t, path, diagramtest.ChildA2); x != 170 {
		t.Errorf("A2.x with spacing 0 = %v, want 170", x)
	}

	os.WriteFile(cfg, []byte("[layout]\nbogus = 1\n"), 0o644)
	if _, err := run(t, "--config", cfg, "inspect", path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad config = %v, want INVALID_CONFIG", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		multi                 bool
		want                  string
	}{
		{"d/a.json", "", "svg", false, "d/a.svg"},
		{"d/a.json", "x.svg", "svg", false, "x.svg"},
		{"d/a.json", "out/x.svg", "png", true, "out/x.png"},
		{"d/a.json", "", "pdf", true, "d/a.pdf"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q", tt.input, tt.output, tt.format, tt.multi, got, tt.want)
		}
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "erkit") {
		t.Errorf("cacheDir() = %q, want /tmp/xdg/erkit", dir)
	}
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		shell   string
		wantErr bool
	}{
		{"bash", false},
		{"zsh", false},
		{"fish", false},
		{"powershell", false},
		{"tcsh", true},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := run(t, "completion", tt.shell)
			if (err != nil) != tt.wantErr {
				t.Fatalf("completion %s error = %v, wantErr %v", tt.shell, err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(out, "erkit") {
				t.Errorf("completion %s output does not mention erkit", tt.shell)
			}
		})
	}
}
