package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/stitch/internal/errors"
)

const (
	// JSONFileName is the JSON configuration file.
	JSONFileName = "stitch.json"

	// YAMLFileName is the YAML configuration file.
	YAMLFileName = "stitch.yaml"

	// HCLFileName is the HCL configuration file.
	HCLFileName = "stitch.hcl"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":3000"

	// DefaultTemplatesDir is the default template directory.
	DefaultTemplatesDir = "templates"

	// DefaultLivePath is where the re-render websocket is mounted.
	DefaultLivePath = "/_stitch/live"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// FileNames lists the configuration files in lookup order.
var FileNames = []string{JSONFileName, YAMLFileName, HCLFileName}

// Config represents a complete site configuration.
type Config struct {
	// Product is sent in the X-Powered-By header.
	Product string `json:"product,omitempty" yaml:"product,omitempty" hcl:"product,optional"`

	// Release hides error details from rendered output.
	Release bool `json:"release,omitempty" yaml:"release,omitempty" hcl:"release,optional"`

	// MaxDepth bounds component nesting (0 = engine default).
	MaxDepth int `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty" hcl:"max_depth,optional"`

	// ErrorTemplate is a template rendered in place of failed components
	// in release mode, relative to the templates.
	ErrorTemplate string `json:"errorTemplate,omitempty" yaml:"errorTemplate,omitempty" hcl:"error_template,optional"`

	Templates *TemplatesConfig `json:"templates,omitempty" yaml:"templates,omitempty" hcl:"templates,block"`
	Server    *ServerConfig    `json:"server,omitempty" yaml:"server,omitempty" hcl:"server,block"`
	Live      *LiveConfig      `json:"live,omitempty" yaml:"live,omitempty" hcl:"live,block"`
	Metrics   *MetricsConfig   `json:"metrics,omitempty" yaml:"metrics,omitempty" hcl:"metrics,block"`
	Static    *StaticConfig    `json:"static,omitempty" yaml:"static,omitempty" hcl:"static,block"`

	// Tracing reports passes to the global OpenTelemetry tracer provider.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty" hcl:"tracing,optional"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TemplatesConfig selects where component templates come from. Exactly
// one of Dir and S3 is used.
type TemplatesConfig struct {
	// Dir is a template directory, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional"`

	// Pattern is a doublestar glob selecting template files.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty" hcl:"pattern,optional"`

	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty" hcl:"s3,block"`
}

// S3Config reads templates from an S3 bucket.
type S3Config struct {
	Bucket string `json:"bucket" yaml:"bucket" hcl:"bucket"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" hcl:"prefix,optional"`
	Region string `json:"region,omitempty" yaml:"region,omitempty" hcl:"region,optional"`

	// MaxSize bounds a single template in bytes.
	MaxSize int64 `json:"maxSize,omitempty" yaml:"maxSize,omitempty" hcl:"max_size,optional"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" hcl:"addr,optional"`

	// Mode is "stream" or "buffer".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty" hcl:"mode,optional"`

	SecureCookies bool   `json:"secureCookies,omitempty" yaml:"secureCookies,omitempty" hcl:"secure_cookies,optional"`
	CookieDomain  string `json:"cookieDomain,omitempty" yaml:"cookieDomain,omitempty" hcl:"cookie_domain,optional"`

	// SameSite is "lax", "strict" or "none".
	SameSite string `json:"sameSite,omitempty" yaml:"sameSite,omitempty" hcl:"same_site,optional"`

	// TrustedProxies are IPs or CIDRs whose forwarding headers are honored.
	TrustedProxies []string `json:"trustedProxies,omitempty" yaml:"trustedProxies,omitempty" hcl:"trusted_proxies,optional"`

	// AllowedRedirectHosts are hosts absolute redirects may point to.
	AllowedRedirectHosts []string `json:"allowedRedirectHosts,omitempty" yaml:"allowedRedirectHosts,omitempty" hcl:"allowed_redirect_hosts,optional"`

	// ShutdownTimeout is a Go duration string (e.g. "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty" hcl:"shutdown_timeout,optional"`
}

// LiveConfig configures interactive re-renders over a websocket.
type LiveConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`

	// AllowedOrigins lists extra origins allowed to connect. Same-origin
	// connections are always allowed.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty" hcl:"allowed_origins,optional"`

	MaxTargets int `json:"maxTargets,omitempty" yaml:"maxTargets,omitempty" hcl:"max_targets,optional"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" hcl:"enabled,optional"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" hcl:"namespace,optional"`
}

// StaticConfig serves files from a directory ahead of rendering.
type StaticConfig struct {
	// Dir is relative to the config file. Empty disables static files.
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" hcl:"prefix,optional"`

	// Cache is "none" or "production".
	Cache string `json:"cache,omitempty" yaml:"cache,omitempty" hcl:"cache,optional"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the first configuration file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("S101").
		WithDetail("No " + strings.Join(FileNames, ", ") + " found in " + dir).
		WithSuggestion("Run 'stitch init' to create one")
}

// LoadFile reads configuration from path. The format follows the file
// extension: .yaml/.yml, .hcl, otherwise JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S101").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("S102").Wrap(err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	case ".hcl":
		err = decodeHCL(path, data, cfg)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	}
	if err != nil {
		return nil, errors.New("S102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file syntax and field names")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func decodeHCL(path string, data []byte, cfg *Config) error {
	f, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return diags
	}
	if diags := gohcl.DecodeBody(f.Body, nil, cfg); diags.HasErrors() {
		return diags
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path as JSON or, for .yaml/.yml,
// as YAML. HCL files are not written.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".hcl":
		return errors.Newf(errors.CategoryConfig, "cannot write HCL configuration %s", path)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("S102").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("S102").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Templates == nil {
		c.Templates = &TemplatesConfig{}
	}
	if c.Templates.Dir == "" && c.Templates.S3 == nil {
		c.Templates.Dir = DefaultTemplatesDir
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "stream"
	}
	if c.Server.SameSite == "" {
		c.Server.SameSite = "lax"
	}

	if c.Live == nil {
		c.Live = &LiveConfig{}
	}
	if c.Live.Path == "" {
		c.Live.Path = DefaultLivePath
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Static == nil {
		c.Static = &StaticConfig{}
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/"
	}
	if c.Static.Cache == "" {
		c.Static.Cache = "none"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return errors.New("S103").WithDetail("maxDepth must not be negative")
	}
	if c.Templates.Dir != "" && c.Templates.S3 != nil {
		return errors.New("S103").WithDetail("templates.dir and templates.s3 are mutually exclusive")
	}
	if c.Templates.Dir == "" && (c.Templates.S3 == nil || c.Templates.S3.Bucket == "") {
		return errors.New("S104")
	}
	if !slices.Contains([]string{"stream", "buffer"}, strings.ToLower(c.Server.Mode)) {
		return errors.New("S103").WithDetail("server.mode must be \"stream\" or \"buffer\", got " + c.Server.Mode)
	}
	if !slices.Contains([]string{"lax", "strict", "none"}, strings.ToLower(c.Server.SameSite)) {
		return errors.New("S103").WithDetail("server.sameSite must be \"lax\", \"strict\" or \"none\", got " + c.Server.SameSite)
	}
	if !slices.Contains([]string{"none", "production"}, strings.ToLower(c.Static.Cache)) {
		return errors.New("S103").WithDetail("static.cache must be \"none\" or \"production\", got " + c.Static.Cache)
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return errors.New("S103").WithDetail("server.shutdownTimeout: " + err.Error())
	}
	for _, p := range []string{c.Live.Path, c.Metrics.Path, c.Static.Prefix} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("S103").WithDetail("mount paths must start with '/', got " + p)
		}
	}
	return nil
}

// ShutdownTimeout parses Server.ShutdownTimeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return DefaultShutdownTimeout, nil
	}
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// TemplatesPath returns the absolute path to the template directory, or ""
// when templates come from S3.
func (c *Config) TemplatesPath() string {
	if c.Templates.Dir == "" {
		return ""
	}
	if filepath.IsAbs(c.Templates.Dir) {
		return c.Templates.Dir
	}
	return filepath.Join(c.Dir(), c.Templates.Dir)
}

// StaticPath returns the absolute path to the static directory, or "" when
// static files are disabled.
func (c *Config) StaticPath() string {
	if c.Static.Dir == "" {
		return ""
	}
	if filepath.IsAbs(c.Static.Dir) {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir(), c.Static.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up from startDir to the first directory holding a
// configuration file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("S101").
				WithDetail("No configuration found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'stitch init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
