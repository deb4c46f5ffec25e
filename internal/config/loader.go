// internal/config/loader.go
//
// Configuration loader.
//
// `Load()` builds one immutable `Config` struct from three layers
// (highest precedence last):
//
//  1. Optional `<root>/conf/.env` dotenv file.
//  2. `conf/global.yaml`.
//  3. Environment variables prefixed `SITELET_`, where `__` maps to “.”
//     (e.g., `SITELET_HTTP__LISTEN_ADDR → http.listen_addr`).
//
// After merging, the tree is unmarshalled into strongly-typed structs,
// validated, enriched with the runtime root path, and cached in an
// `atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
// again and swaps the pointer.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

// rootDir resolves SITELET_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable heuristic for
// the production layout (binary under <root>/bin).
func rootDir() string {
	if r := os.Getenv("SITELET_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	// Env overrides: SITELET_REDIS__ADDR → redis.addr
	if err := k.Load(env.Provider("SITELET_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"platform_domain", cfg.HTTP.PlatformDomain,
		"cache_ttl", cfg.Redis.TTL,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
