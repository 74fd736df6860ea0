package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/themetree/internal/security"
)

func newTestFile(t *testing.T) (*File, string) {
	t.Helper()
	workspace := t.TempDir()
	f, err := NewFile(workspace, "", nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	return f, workspace
}

func writeSettings(t *testing.T, f *File, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readSettings(t *testing.T, f *File) string {
	t.Helper()
	data, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNewFile(t *testing.T) {
	workspace := t.TempDir()

	f, err := NewFile(workspace, "", nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if want := filepath.Join(workspace, ".vscode", "settings.json"); f.Path() != want {
		t.Errorf("Path() = %s, want %s", f.Path(), want)
	}

	if _, err := NewFile(workspace, "../elsewhere.json", nil); !errors.Is(err, security.ErrOutsideWorkspace) {
		t.Errorf("NewFile() outside workspace error = %v, want ErrOutsideWorkspace", err)
	}
}

func TestMergeCreatesFile(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()

	if err := f.Merge(ctx, map[string]string{"statusBar.background": "#0078D4"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	colors, err := f.Colors(ctx)
	if err != nil {
		t.Fatalf("Colors() error = %v", err)
	}
	if colors["statusBar.background"] != "#0078D4" {
		t.Errorf("Colors() = %v", colors)
	}
	if !strings.Contains(readSettings(t, f), ColorCustomizationsKey) {
		t.Error("settings file should contain the customization key")
	}
}

func TestMergePreservesUnrelated(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{
	// keep me
	"editor.fontSize": 14,
	"workbench.colorCustomizations": {
		"editor.background": "#101010",
		"statusBar.background": "#ff0000",
	},
}
`)

	err := f.Merge(ctx, map[string]string{
		"statusBar.background": "#0078D4",
		"statusBar.foreground": "#ffffff",
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	colors, err := f.Colors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"editor.background":    "#101010",
		"statusBar.background": "#0078D4",
		"statusBar.foreground": "#ffffff",
	}
	if len(colors) != len(want) {
		t.Fatalf("Colors() = %v, want %v", colors, want)
	}
	for k, v := range want {
		if colors[k] != v {
			t.Errorf("Colors()[%s] = %s, want %s", k, colors[k], v)
		}
	}

	content := readSettings(t, f)
	if !strings.Contains(content, "// keep me") {
		t.Error("comment was not preserved")
	}
	if !strings.Contains(content, `"editor.fontSize"`) {
		t.Error("unrelated setting was not preserved")
	}
}

func TestMergeReplacesNonObject(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{"workbench.colorCustomizations": "oops"}`)

	if err := f.Merge(ctx, map[string]string{"titleBar.activeBackground": "#111111"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	colors, _ := f.Colors(ctx)
	if colors["titleBar.activeBackground"] != "#111111" {
		t.Errorf("Colors() = %v", colors)
	}
}

func TestMergeEmptyFile(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, "\n")

	if err := f.Merge(ctx, map[string]string{"a": "#000000"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	colors, _ := f.Colors(ctx)
	if colors["a"] != "#000000" {
		t.Errorf("Colors() = %v", colors)
	}
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "array", content: `[1, 2]`},
		{name: "syntax", content: `{"a": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFile(t)
			writeSettings(t, f, tt.content)

			err := f.Merge(context.Background(), map[string]string{"a": "#000000"})
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Merge() error = %v, want ErrInvalidSettings", err)
			}
			if readSettings(t, f) != tt.content {
				t.Error("invalid settings file was modified")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{
	"editor.fontSize": 14,
	"workbench.colorCustomizations": {
		"editor.background": "#101010",
		"statusBar.background": "#0078D4",
	},
}
`)

	if err := f.Delete(ctx, []string{"statusBar.background", "statusBar.foreground"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	colors, _ := f.Colors(ctx)
	if len(colors) != 1 || colors["editor.background"] != "#101010" {
		t.Errorf("Colors() = %v, want only editor.background", colors)
	}
}

func TestDeleteRemovesEmptyObject(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{"editor.fontSize": 14, "workbench.colorCustomizations": {"statusBar.background": "#0078D4"}}`)

	if err := f.Delete(ctx, []string{"statusBar.background"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	content := readSettings(t, f)
	if strings.Contains(content, ColorCustomizationsKey) {
		t.Errorf("empty customization object should be removed, got %s", content)
	}
	if !strings.Contains(content, "editor.fontSize") {
		t.Error("unrelated setting was not preserved")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{"workbench.colorCustomizations": {"a": "#000000", "b": "#111111"}}`)

	if err := f.Delete(ctx, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	first := readSettings(t, f)

	if err := f.Delete(ctx, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if second := readSettings(t, f); second != first {
		t.Errorf("second Delete() changed the file:\n%s\nvs\n%s", first, second)
	}
}

func TestDeleteMissingFile(t *testing.T) {
	f, workspace := newTestFile(t)

	if err := f.Delete(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(workspace, ".vscode")); !errors.Is(err, os.ErrNotExist) {
		t.Error("Delete() should not create the settings directory")
	}
}

func TestColorsMissingFile(t *testing.T) {
	f, _ := newTestFile(t)
	colors, err := f.Colors(context.Background())
	if err != nil {
		t.Fatalf("Colors() error = %v", err)
	}
	if len(colors) != 0 {
		t.Errorf("Colors() = %v, want empty", colors)
	}
}

func TestColorsNotObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "string", content: `{"workbench.colorCustomizations": "oops"}`},
		{name: "array", content: `{"workbench.colorCustomizations": ["#000000"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFile(t)
			writeSettings(t, f, tt.content)

			if _, err := f.Colors(context.Background()); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Colors() error = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestMergeKeepsUnrelatedFormatting(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	head := "{\n" +
		"    // aligned by hand\n" +
		"    \"editor.fontSize\":   14,\n" +
		"    \"files.autoSave\":    \"off\",\n"
	writeSettings(t, f, head+
		"    \"workbench.colorCustomizations\": {\n"+
		"        \"editor.background\": \"#101010\"\n"+
		"    }\n"+
		"}\n")

	err := f.Merge(ctx, map[string]string{
		"statusBar.background": "#0078D4",
		"statusBar.foreground": "#ffffff",
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	content := readSettings(t, f)
	if !strings.HasPrefix(content, head) {
		t.Errorf("unrelated settings were reformatted:\n%s", content)
	}
	if !strings.HasSuffix(content, "}\n}\n") {
		t.Errorf("closing braces were reformatted:\n%s", content)
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "statusBar.") && strings.Count(line, ":") != 1 {
			t.Errorf("customization members share a line: %q", line)
		}
	}

	colors, err := f.Colors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != 3 || colors["statusBar.foreground"] != "#ffffff" {
		t.Errorf("Colors() = %v", colors)
	}
}

func TestUpdate(t *testing.T) {
	f, _ := newTestFile(t)
	ctx := context.Background()
	writeSettings(t, f, `{
	// keep me
	"workbench.colorCustomizations": {
		"editor.background": "#101010",
		"statusBar.background": "#ff0000",
		"titleBar.activeBackground": "#00ff00",
	},
}
`)

	err := f.Update(ctx,
		map[string]string{"statusBar.background": "#0078D4", "activityBar.background": "#222222"},
		[]string{"titleBar.activeBackground", "statusBar.background", "absent.key"},
	)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	colors, err := f.Colors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"editor.background":      "#101010",
		"statusBar.background":   "#0078D4",
		"activityBar.background": "#222222",
	}
	if len(colors) != len(want) {
		t.Fatalf("Colors() = %v, want %v", colors, want)
	}
	for k, v := range want {
		if colors[k] != v {
			t.Errorf("Colors()[%s] = %s, want %s", k, colors[k], v)
		}
	}
	if !strings.Contains(readSettings(t, f), "// keep me") {
		t.Error("comment was not preserved")
	}
}

func TestUpdateRemovesEmptiedObject(t *testing.T) {
	f, _ := newTestFile(t)
	writeSettings(t, f, `{"editor.fontSize": 14, "workbench.colorCustomizations": {"a": "#000000"}}`)

	if err := f.Update(context.Background(), nil, []string{"a"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if content := readSettings(t, f); strings.Contains(content, ColorCustomizationsKey) {
		t.Errorf("empty customization object should be removed, got %s", content)
	}
}

func TestUpdateInvalidSettingsUnchanged(t *testing.T) {
	f, _ := newTestFile(t)
	content := `{"workbench.colorCustomizations": {"a": `
	writeSettings(t, f, content)

	err := f.Update(context.Background(), map[string]string{"b": "#111111"}, []string{"a"})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("Update() error = %v, want ErrInvalidSettings", err)
	}
	if readSettings(t, f) != content {
		t.Error("invalid settings file was modified")
	}
}

func TestCancelledContext(t *testing.T) {
	f, _ := newTestFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Merge(ctx, map[string]string{"a": "#000000"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Merge() error = %v, want context.Canceled", err)
	}
	if err := f.Delete(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Delete() error = %v, want context.Canceled", err)
	}
	if err := f.Update(ctx, map[string]string{"a": "#000000"}, []string{"b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v, want context.Canceled", err)
	}
}

func TestPointerEscaping(t *testing.T) {
	if got := pointer("a/b~c"); got != "/workbench.colorCustomizations/a~1b~0c" {
		t.Errorf("pointer() = %s", got)
	}
}
