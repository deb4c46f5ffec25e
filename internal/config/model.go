// internal/config/model.go
//
// Typed configuration model for Sitelet.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                      – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `SITELET_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`; Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.  PlatformDomain is the apex under which
// tenant subdomains are served, e.g. "sitelet.page".
type HTTP struct {
	ListenAddr     string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS     bool   `koanf:"force_https"`
	PlatformDomain string `koanf:"platform_domain" validate:"required,fqdn"`
}

//
// Database section
//

// Database holds the control-plane DSN.  The secret portion may be a
// `vault:` URI resolved through internal/vault before the pool opens.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Redis section
//

// Redis configures the resolution cache.  TTL bounds how long a cached
// subdomain tuple may be served without a registry read.
type Redis struct {
	Addr     string        `koanf:"addr" validate:"required,hostname_port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl" validate:"required"`
}

//
// FlatStore section
//

// FlatStore points at the S3-compatible bucket holding script and style
// assets under versioned keys.
type FlatStore struct {
	Endpoint  string `koanf:"endpoint" validate:"required"`
	AccessKey string `koanf:"access_key" validate:"required"`
	SecretKey string `koanf:"secret_key" validate:"required"`
	Bucket    string `koanf:"bucket" validate:"required"`
	UseSSL    bool   `koanf:"use_ssl"`
}

//
// MediaStore section
//

// MediaStore points at the transformation-capable provider used for
// image and video assets.  Video ingestion is asynchronous; the provider
// confirms via webhook, so WebhookSecret authenticates those callbacks.
type MediaStore struct {
	BaseURL       string        `koanf:"base_url" validate:"required,url"`
	APIKey        string        `koanf:"api_key" validate:"required"`
	WebhookSecret string        `koanf:"webhook_secret" validate:"required"`
	Timeout       time.Duration `koanf:"timeout"`
}

//
// Token section
//

// Token configures private-subdomain view tokens.  KeyID selects the
// active signing key; older keys stay verifiable until rotated out.
type Token struct {
	Expiry    time.Duration `koanf:"expiry" validate:"required"`
	KeyID     string        `koanf:"key_id" validate:"required"`
	SigningKey string       `koanf:"signing_key"`
	VaultPath  string       `koanf:"vault_path"`
}

//
// Geo section (optional)
//

// Geo locates the MaxMind database used for access-log enrichment on the
// public resolve path.  Empty disables geolocation.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or SITELET_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // SITELET_ROOT or discovered parent
}

// Config is the immutable aggregate handed out by Get().
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	Database   Database   `koanf:"database"`
	Redis      Redis      `koanf:"redis"`
	FlatStore  FlatStore  `koanf:"flat_store"`
	MediaStore MediaStore `koanf:"media_store"`
	Token      Token      `koanf:"token"`
	Geo        Geo        `koanf:"geo"`
	Paths      Paths      `koanf:"-"`
}
