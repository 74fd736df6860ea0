// Package config loads themetree settings from defaults, config files, the
// environment and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyWorkspace     = "workspace"
	KeySettingsFile  = "settings-file"
	KeySCM           = "scm"
	KeyScanDepth     = "scan-depth"
	KeyDebounce      = "debounce"
	KeySurfaces      = "surfaces"
	KeyClearOnExit   = "clear-on-exit"
	KeyEditorProcess = "editor-process"
	KeyLogLevel      = "log-level"
	KeyRuntimeDir    = "runtime-dir"
)

const (
	envPrefix = "THEMETREE"

	// ProjectConfigName is looked up in the workspace root.
	ProjectConfigName = ".themetree.yaml"
)

// Config is the resolved configuration.
type Config struct {
	Workspace     string
	SettingsFile  string
	SCM           string
	ScanDepth     int
	Debounce      time.Duration
	Surfaces      []string
	ClearOnExit   bool
	EditorProcess string
	LogLevel      string

	// RuntimeDir holds watcher pid files. Empty selects the platform default.
	RuntimeDir string

	// Sources lists the config files that were merged, lowest precedence first.
	Sources []string
}

type loadSettings struct {
	workingDir        string
	userConfigPath    string
	projectConfigPath string
	flags             *pflag.FlagSet
}

// Option configures Load.
type Option func(*loadSettings)

// WithWorkingDir sets the default workspace when none is configured.
func WithWorkingDir(dir string) Option {
	return func(s *loadSettings) {
		s.workingDir = dir
	}
}

// WithUserConfig overrides the user config path.
func WithUserConfig(path string) Option {
	return func(s *loadSettings) {
		s.userConfigPath = path
	}
}

// WithProjectConfig overrides the project config path instead of looking in
// the workspace.
func WithProjectConfig(path string) Option {
	return func(s *loadSettings) {
		s.projectConfigPath = path
	}
}

// WithFlags binds flags whose names match configuration keys.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(s *loadSettings) {
		s.flags = flags
	}
}

// Load resolves configuration using the precedence:
// defaults < user config < project config < environment < flags.
func Load(opts ...Option) (*Config, error) {
	settings := loadSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, workingDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if settings.flags != nil {
		if err := bindFlags(v, settings.flags); err != nil {
			return nil, err
		}
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := DefaultUserConfigPath()
		if err != nil {
			return nil, err
		}
		userConfigPath = path
	}

	var sources []string
	merged, err := mergeConfigFile(v, userConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	if merged {
		sources = append(sources, userConfigPath)
	}

	// The project file lives in the workspace, which may itself come from
	// the user file, the environment or a flag.
	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		projectConfigPath = filepath.Join(absPath(v.GetString(KeyWorkspace), workingDir), ProjectConfigName)
	}
	merged, err = mergeConfigFile(v, projectConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}
	if merged {
		sources = append(sources, projectConfigPath)
	}

	cfg := &Config{
		Workspace:     absPath(v.GetString(KeyWorkspace), workingDir),
		SettingsFile:  v.GetString(KeySettingsFile),
		SCM:           v.GetString(KeySCM),
		ScanDepth:     v.GetInt(KeyScanDepth),
		Debounce:      v.GetDuration(KeyDebounce),
		Surfaces:      splitList(v.GetStringSlice(KeySurfaces)),
		ClearOnExit:   v.GetBool(KeyClearOnExit),
		EditorProcess: v.GetString(KeyEditorProcess),
		LogLevel:      v.GetString(KeyLogLevel),
		RuntimeDir:    v.GetString(KeyRuntimeDir),
		Sources:       sources,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.ScanDepth < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyScanDepth, c.ScanDepth)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyDebounce, c.Debounce)
	}
	if strings.TrimSpace(c.SCM) == "" {
		return fmt.Errorf("%s must not be empty", KeySCM)
	}
	return nil
}

// DefaultUserConfigPath returns ~/.config/themetree/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".config", "themetree", "config.yaml"), nil
}

func setDefaults(v *viper.Viper, workingDir string) {
	v.SetDefault(KeyWorkspace, workingDir)
	v.SetDefault(KeySettingsFile, "")
	v.SetDefault(KeySCM, "git")
	v.SetDefault(KeyScanDepth, 1)
	v.SetDefault(KeyDebounce, 100*time.Millisecond)
	v.SetDefault(KeySurfaces, []string{"titleBar", "statusBar", "activityBar"})
	v.SetDefault(KeyClearOnExit, false)
	v.SetDefault(KeyEditorProcess, "code")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRuntimeDir, "")
}

// bindFlags binds every flag named after a configuration key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		KeyWorkspace, KeySettingsFile, KeySCM, KeyScanDepth, KeyDebounce,
		KeySurfaces, KeyClearOnExit, KeyEditorProcess, KeyLogLevel, KeyRuntimeDir,
	} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func absPath(path, base string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path)
}

// splitList accepts both YAML lists and comma separated strings.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
