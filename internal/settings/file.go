// Package settings reads and edits the workspace colour customizations in the
// editor's settings file.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/tailscale/hujson"

	"github.com/jmylchreest/themetree/internal/security"
)

const (
	// DefaultPath is the settings file relative to the workspace root.
	DefaultPath = ".vscode/settings.json"

	// ColorCustomizationsKey is the settings key holding colour overrides.
	ColorCustomizationsKey = "workbench.colorCustomizations"

	maxFileSize = 4 << 20
)

// ErrInvalidSettings is returned when the settings file is not a JSON object.
var ErrInvalidSettings = errors.New("invalid settings file")

// File is a colour-customization store backed by a JSON-with-comments
// settings file. Comments and unrelated keys are preserved across edits.
type File struct {
	path   string
	logger hclog.Logger
}

// NewFile returns the store for path inside workspace. An empty path selects
// DefaultPath. Paths that escape the workspace are rejected.
func NewFile(workspace, path string, logger hclog.Logger) (*File, error) {
	if path == "" {
		path = DefaultPath
	}
	resolved, err := security.ResolveWorkspacePath(path, workspace)
	if err != nil {
		return nil, fmt.Errorf("settings file: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &File{path: resolved, logger: logger}, nil
}

// Path returns the absolute settings file path.
func (f *File) Path() string {
	return f.path
}

// Colors returns the string-valued colour customizations currently set.
// A missing file yields an empty map.
func (f *File) Colors(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := f.load()
	if err != nil || root == nil {
		return map[string]string{}, err
	}

	v := root.Find(pointer())
	if v == nil {
		return map[string]string{}, nil
	}
	if !isObject(v) {
		return nil, fmt.Errorf("%s: %w: %s is not an object", f.path, ErrInvalidSettings, ColorCustomizationsKey)
	}
	clone := v.Clone()
	clone.Standardize()

	var raw map[string]any
	if err := json.Unmarshal(clone.Pack(), &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.path, ErrInvalidSettings, err)
	}
	colors := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			colors[k] = s
		}
	}
	return colors, nil
}

// Merge sets colors in the customization object, creating the file and the
// object when missing. Keys not in colors are left untouched.
func (f *File) Merge(ctx context.Context, colors map[string]string) error {
	return f.Update(ctx, colors, nil)
}

// Delete removes keys from the customization object. The object itself is
// removed once empty. Nothing is written when no key was present.
func (f *File) Delete(ctx context.Context, keys []string) error {
	return f.Update(ctx, nil, keys)
}

// Update sets the keys in set and removes the keys in remove with a single
// write. A key in both is set. The customization object is created when set
// is non-empty and removed once empty. Nothing is written when the file
// would not change.
func (f *File) Update(ctx context.Context, set map[string]string, remove []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(set) == 0 && len(remove) == 0 {
		return nil
	}

	root, err := f.load()
	if err != nil {
		return err
	}
	created := root == nil
	if created {
		if len(set) == 0 {
			return nil
		}
		empty, _ := hujson.Parse([]byte("{}"))
		root = &empty
	}

	var ops []patchOp
	parent := root.Find(pointer())
	switch {
	case parent != nil && isObject(parent):
		for _, key := range sortedKeys(set) {
			op := "add"
			if root.Find(pointer(key)) != nil {
				op = "replace"
			}
			ops = append(ops, patchOp{Op: op, Path: pointer(key), Value: set[key]})
		}
		sorted := append([]string(nil), remove...)
		sort.Strings(sorted)
		for _, key := range sorted {
			if _, kept := set[key]; kept {
				continue
			}
			if root.Find(pointer(key)) != nil {
				ops = append(ops, patchOp{Op: "remove", Path: pointer(key)})
			}
		}
	case len(set) > 0:
		op := "add"
		if parent != nil {
			op = "replace"
		}
		ops = append(ops, patchOp{Op: op, Path: pointer(), Value: set})
	}
	if len(ops) == 0 {
		return nil
	}
	if err := applyPatch(root, ops); err != nil {
		return err
	}

	obj := root.Find(pointer())
	if members, ok := obj.Value.(*hujson.Object); ok && len(members.Members) == 0 {
		if err := applyPatch(root, []patchOp{{Op: "remove", Path: pointer()}}); err != nil {
			return err
		}
	} else if created {
		root.Format()
	} else {
		formatCustomizations(root)
	}

	f.logger.Debug("updated colour customizations", "path", f.path, "set", len(set), "ops", len(ops))
	return f.write(root)
}

// load parses the settings file. It returns nil, nil when the file does not
// exist.
func (f *File) load() (*hujson.Value, error) {
	//nolint:gosec // G304: path is validated to lie inside the workspace
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(security.NewLimitedReader(file, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	root, err := hujson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", f.path, ErrInvalidSettings, err)
	}
	if !isObject(&root) {
		return nil, fmt.Errorf("%s: %w: top level is not an object", f.path, ErrInvalidSettings)
	}
	return &root, nil
}

// write replaces the settings file atomically.
func (f *File) write(root *hujson.Value) error {
	data := root.Pack()
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// formatCustomizations formats the customization object the way Format would
// lay it out in place, leaving the rest of root as the user wrote it.
func formatCustomizations(root *hujson.Value) {
	obj, ok := root.Value.(*hujson.Object)
	if !ok {
		return
	}
	formatted := root.Clone()
	formatted.Format()
	fobj := formatted.Value.(*hujson.Object)
	for i := range obj.Members {
		name, ok := obj.Members[i].Name.Value.(hujson.Literal)
		if ok && name.String() == ColorCustomizationsKey {
			obj.Members[i].Value.Value = fobj.Members[i].Value.Value
		}
	}
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

func applyPatch(root *hujson.Value, ops []patchOp) error {
	patch, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := root.Patch(patch); err != nil {
		return fmt.Errorf("patch settings: %w", err)
	}
	return nil
}

// pointer returns the JSON pointer to the customization object, or to one of
// its members.
func pointer(key ...string) string {
	p := "/" + escapePointer(ColorCustomizationsKey)
	for _, k := range key {
		p += "/" + escapePointer(k)
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string {
	return pointerEscaper.Replace(s)
}

func isObject(v *hujson.Value) bool {
	_, ok := v.Value.(*hujson.Object)
	return ok
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
