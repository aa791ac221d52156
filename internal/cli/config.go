package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/plotbook/internal/paths"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "PLOTBOOK"
)

// Config keys.
const (
	keyBackend          = "backend"
	keyDataDir          = "data_dir"
	keyPostgresDSN      = "postgres.dsn"
	keyMode             = "persistence.mode"
	keyFlushInterval    = "persistence.flush_interval"
	keyShutdownAttempts = "persistence.shutdown_attempts"
	keyShutdownDelay    = "persistence.shutdown_delay"
	keyImagesDriver     = "images.driver"
	keyS3Bucket         = "images.s3.bucket"
	keyS3Region         = "images.s3.region"
	keyS3Endpoint       = "images.s3.endpoint"
	keyS3PathStyle      = "images.s3.path_style"
)

// configFile is the shape written to config.yaml by init.
type configFile struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir,omitempty"`
	Persistence struct {
		Mode             string `yaml:"mode"`
		FlushInterval    string `yaml:"flush_interval"`
		ShutdownAttempts int    `yaml:"shutdown_attempts"`
		ShutdownDelay    string `yaml:"shutdown_delay"`
	} `yaml:"persistence"`
	Images struct {
		Driver string `yaml:"driver"`
	} `yaml:"images"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyBackend, types.BackendWorkspace)
	v.SetDefault(keyMode, types.ModeDeferred)
	v.SetDefault(keyFlushInterval, types.DefaultFlushInterval)
	v.SetDefault(keyShutdownAttempts, types.DefaultShutdownAttempts)
	v.SetDefault(keyShutdownDelay, types.DefaultShutdownDelay)
	v.SetDefault(keyImagesDriver, types.ImagesFilesystem)
}

// loadConfig reads config.yaml from configDir into v. PLOTBOOK_* environment
// variables override file values, with dots in keys spelled as underscores.
// A missing file is not an error.
func loadConfig(v *viper.Viper, configDir string) error {
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// resolveConfig loads the configuration for a command run and maps it onto
// types.Config.
func (o *rootOptions) resolveConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := loadConfig(o.v, configDir); err != nil {
		return types.Config{}, err
	}
	dataDir, err := paths.ResolveDataDir(o.dataDir, o.v.GetString(keyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:     o.v.GetString(keyBackend),
		DataDir:     dataDir,
		PostgresDSN: o.v.GetString(keyPostgresDSN),
		Persistence: types.PersistenceConfig{
			Mode:             o.v.GetString(keyMode),
			FlushInterval:    o.v.GetDuration(keyFlushInterval),
			ShutdownAttempts: o.v.GetInt(keyShutdownAttempts),
			ShutdownDelay:    o.v.GetDuration(keyShutdownDelay),
		},
		Images: types.ImagesConfig{
			Driver: o.v.GetString(keyImagesDriver),
			S3: types.S3Config{
				Bucket:    o.v.GetString(keyS3Bucket),
				Region:    o.v.GetString(keyS3Region),
				Endpoint:  o.v.GetString(keyS3Endpoint),
				PathStyle: o.v.GetBool(keyS3PathStyle),
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	var out configFile
	out.Backend = cfg.Backend
	out.DataDir = cfg.DataDir
	out.Persistence.Mode = cfg.Persistence.Mode
	out.Persistence.FlushInterval = cfg.Persistence.FlushInterval.String()
	out.Persistence.ShutdownAttempts = cfg.Persistence.ShutdownAttempts
	out.Persistence.ShutdownDelay = cfg.Persistence.ShutdownDelay.String()
	out.Images.Driver = cfg.Images.Driver

	data, err := yaml.Marshal(&out)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
