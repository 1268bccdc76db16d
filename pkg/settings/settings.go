// Package settings is the host configuration store: a global viper instance
// plus one instance per workspace folder.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fonline/fodev/internal/errx"
)

// Folder settings live at <folder>/.fonline/settings.json.
const (
	FolderDir  = ".fonline"
	FolderFile = "settings.json"
)

// EnvPrefix scopes environment overrides, so FONLINE_PATH feeds "path".
const EnvPrefix = "FONLINE"

// Keys understood by the resolver and the command line.
const (
	KeyPath              = "path"
	KeyWorkspace         = "workspace"
	KeyCMakeContribution = "cmake-contribution"
	KeyRemoteName        = "remote-name"
	KeyEngineConfig      = "engine-config"

	KeyMaxAttempts     = "roots.max-attempts"
	KeyPollInterval    = "launcher.poll-interval"
	KeyLaunchTimeout   = "launcher.timeout"
	KeyHold            = "actions.hold"
	KeyInstallPackages = "actions.install-packages"
	KeyTerminal        = "actions.terminal"
	KeyLogLevel        = "log.level"
	KeyLogEvents       = "log.events"
)

// DefaultEngineConfig is the engine document location relative to the engine.
const DefaultEngineConfig = "BuildTools/fonline-editor.json"

// Store answers Get(folder, key). An empty folder addresses the global scope.
type Store struct {
	global  *viper.Viper
	folders map[string]*viper.Viper
	order   []string
}

// NewGlobal returns a viper instance wired the way fodev reads its global
// settings: FONLINE_* environment overrides with '-' and '.' mapped to '_'.
func NewGlobal() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Configure applies the FONLINE_* environment binding and the defaults to v.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// SetDefaults registers the default of every tunable key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEngineConfig, DefaultEngineConfig)
	v.SetDefault(KeyMaxAttempts, 5)
	v.SetDefault(KeyPollInterval, 5*time.Millisecond)
	v.SetDefault(KeyLaunchTimeout, time.Duration(0))
	v.SetDefault(KeyHold, false)
	v.SetDefault(KeyInstallPackages, true)
	v.SetDefault(KeyTerminal, true)
	v.SetDefault(KeyLogLevel, "info")
}

// New loads the settings file of every folder. Folders without one are fine.
func New(global *viper.Viper, folders []string) (*Store, error) {
	if global == nil {
		global = NewGlobal()
	}
	s := &Store{
		global:  global,
		folders: make(map[string]*viper.Viper, len(folders)),
	}
	for _, folder := range folders {
		abs, err := filepath.Abs(folder)
		if err != nil {
			return nil, errx.Wrap(ErrReadFolderSettings, err)
		}
		if _, ok := s.folders[abs]; ok {
			continue
		}
		v, err := loadFolder(abs)
		if err != nil {
			return nil, err
		}
		s.folders[abs] = v
		s.order = append(s.order, abs)
	}
	return s, nil
}

func loadFolder(folder string) (*viper.Viper, error) {
	v := viper.New()
	path := FilePath(folder)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, errx.Wrap(ErrReadFolderSettings, err)
	}
	return v, nil
}

// FilePath returns the settings file location for folder.
func FilePath(folder string) string {
	return filepath.Join(folder, FolderDir, FolderFile)
}

// Folders returns the absolute workspace folders in their original order.
func (s *Store) Folders() []string {
	return append([]string(nil), s.order...)
}

// Global exposes the global scope for typed lookups.
func (s *Store) Global() *viper.Viper { return s.global }

// Get returns key from the folder scope, or from the global scope when folder
// is empty. Folder scopes do not fall back to the global one.
func (s *Store) Get(folder, key string) string {
	if folder == "" {
		return strings.TrimSpace(s.global.GetString(key))
	}
	v, ok := s.folders[s.key(folder)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetString(key))
}

// Persist writes key=value into the folder's settings file, creating it when
// missing, and updates the in-memory scope. An empty folder updates the global
// scope in memory only.
func (s *Store) Persist(folder, key, value string) error {
	if folder == "" {
		s.global.Set(key, value)
		return nil
	}
	folderKey := s.key(folder)
	v, ok := s.folders[folderKey]
	if !ok {
		return errx.With(ErrUnknownFolder, ": %s", folder)
	}

	path := FilePath(folderKey)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = []byte("{}")
	case err != nil:
		return errx.Wrap(ErrWriteFolderSettings, err)
	case !gjson.ValidBytes(data):
		return errx.With(ErrMalformedSettings, ": %s", path)
	}

	updated, err := sjson.SetBytes(data, escapeKey(key), value)
	if err != nil {
		return errx.Wrap(ErrWriteFolderSettings, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errx.Wrap(ErrWriteFolderSettings, err)
	}
	if err := os.WriteFile(path, updated, 0644); err != nil {
		return errx.Wrap(ErrWriteFolderSettings, err)
	}
	v.Set(key, value)
	return nil
}

func (s *Store) key(folder string) string {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return folder
	}
	return abs
}

// escapeKey keeps dotted keys such as "roots.max-attempts" nested the same
// way viper reads them, while escaping sjson's wildcard characters.
func escapeKey(key string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`)
	return r.Replace(key)
}
