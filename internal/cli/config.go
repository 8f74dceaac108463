package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rowset/internal/paths"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDSN          = "dsn"
	cfgKeySyncStrategy = "sync_strategy"
	cfgKeySchemaFile   = "schema_file"
	cfgKeyCachePolicy  = "cache_policy"
	cfgKeyTokenSecret  = "token_secret"
	cfgKeyHash         = "hash"
	cfgKeyHashSalt     = "hash_salt"

	defaultBackend    = types.BackendSQLite
	defaultSchemaFile = "schema.yaml"
	defaultHash       = "sha256"
)

// configFile holds the structure written to config.yaml on first run.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	DSN          string `yaml:"dsn,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	SchemaFile   string `yaml:"schema_file"`
	CachePolicy  string `yaml:"cache_policy"`
	Hash         string `yaml:"hash"`
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. The token secret and
// DSN may also come from ROWSET_TOKEN_SECRET and ROWSET_DSN.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeySchemaFile, defaultSchemaFile)
	v.SetDefault(cfgKeyCachePolicy, string(types.CachePerDepth))
	v.SetDefault(cfgKeyHash, defaultHash)
	v.SetEnvPrefix("rowset")
	for _, key := range []string{cfgKeyTokenSecret, cfgKeyDSN, cfgKeyHashSalt} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left untouched.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:      defaultBackend,
		SyncStrategy: types.SyncImmediate,
		SchemaFile:   defaultSchemaFile,
		CachePolicy:  string(types.CachePerDepth),
		Hash:         defaultHash,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// backendConfig builds the Attach configuration. The --data-dir flag wins
// over data_dir in config.yaml.
func (a *app) backendConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:      a.cfg.GetString(cfgKeyBackend),
		DataDir:      dataDir,
		DSN:          a.cfg.GetString(cfgKeyDSN),
		SyncStrategy: a.cfg.GetString(cfgKeySyncStrategy),
	}
	return cfg, cfg.Validate()
}

// schemaPath returns the schema file, relative paths resolved against the
// config directory.
func (a *app) schemaPath() string {
	p := a.cfg.GetString(cfgKeySchemaFile)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.configDir, p)
}

// newLogger writes JSON at info level, or human-readable debug output when
// verbose is set.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel), zap.AddCaller())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.InfoLevel))
}
