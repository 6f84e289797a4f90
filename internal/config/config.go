// Package config provides configuration loading and management for the document source server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/docsource-server/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read by the server
const EnvPrefix = "DOCSOURCE"

const (
	// DatabaseDriverSQLite stores everything in a local SQLite file
	DatabaseDriverSQLite = "sqlite"

	// DatabaseDriverPostgres stores everything in a PostgreSQL database
	DatabaseDriverPostgres = "postgres"
)

const (
	// StorageBackendFile stores blobs in a local directory
	StorageBackendFile = "file"

	// StorageBackendMemory stores blobs in process memory
	StorageBackendMemory = "memory"

	// StorageBackendURL opens any bucket URL registered with the blob library
	StorageBackendURL = "url"
)

const (
	// AuthModeAnonymous disables authentication
	AuthModeAnonymous = "anonymous"

	// AuthModeJWT validates bearer tokens against configured providers
	AuthModeJWT = "jwt"
)

// Authorization action names.
const (
	ActionSourcesView     = "sources.view"
	ActionSourcesCreate   = "sources.create"
	ActionSourcesEdit     = "sources.edit"
	ActionSourcesDelete   = "sources.delete"
	ActionDocumentsCreate = "documents.create"
	ActionDocumentsView   = "documents.view"
)

// AllActions lists every action known to the authorizer
var AllActions = []string{
	ActionSourcesView,
	ActionSourcesCreate,
	ActionSourcesEdit,
	ActionSourcesDelete,
	ActionDocumentsCreate,
	ActionDocumentsView,
}

// DefaultScopeMapping is used when authz.scopeMapping is empty
var DefaultScopeMapping = []ScopeMappingEntry{
	{Scope: "docsource:read", Actions: []string{ActionSourcesView, ActionDocumentsView}},
	{Scope: "docsource:upload", Actions: []string{ActionSourcesView, ActionDocumentsView, ActionDocumentsCreate}},
	{Scope: "docsource:admin", Actions: AllActions},
}

const (
	defaultLanguage          = "eng"
	defaultIngestWorkers     = 4
	defaultIngestQueueSize   = 100
	defaultPollingInterval   = 30 * time.Second
	defaultMaxChecks         = 4
	defaultImageTimeout      = 60 * time.Second
	defaultScanimagePath     = "/usr/bin/scanimage"
	defaultDataDirectoryName = "docsource"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir holds local state (sqlite database, status files, locks, file storage)
	// Defaults to $XDG_DATA_HOME/docsource
	DataDir string `yaml:"dataDir,omitempty"`

	Database      *DatabaseConfig      `yaml:"database,omitempty"`
	Storage       StorageConfig        `yaml:"storage,omitempty"`
	Sources       []SourceConfig       `yaml:"sources,omitempty"`
	DocumentTypes []DocumentTypeConfig `yaml:"documentTypes,omitempty"`
	MetadataTypes []MetadataTypeConfig `yaml:"metadataTypes,omitempty"`
	Documents     DocumentsConfig      `yaml:"documents,omitempty"`
	Ingest        IngestConfig         `yaml:"ingest,omitempty"`
	Scheduler     SchedulerConfig      `yaml:"scheduler,omitempty"`
	Staging       StagingConfig        `yaml:"staging,omitempty"`
	Auth          *AuthConfig          `yaml:"auth,omitempty"`
	Authz         *AuthzConfig         `yaml:"authz,omitempty"`
	Telemetry     *telemetry.Config    `yaml:"telemetry,omitempty"`

	// ScanimagePath is the path to the SANE scanimage binary
	ScanimagePath string `yaml:"scanimagePath,omitempty"`
}

// SourceConfig declares a source created at startup when no source with the same label exists
type SourceConfig struct {
	Label       string         `yaml:"label"`
	Backend     string         `yaml:"backend"`
	Enabled     *bool          `yaml:"enabled,omitempty"`
	BackendData map[string]any `yaml:"backendData,omitempty"`
}

// IsEnabled returns whether the source starts enabled, defaulting to true
func (s *SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// DocumentTypeConfig declares a document type created at startup
type DocumentTypeConfig struct {
	Label         string   `yaml:"label"`
	MetadataTypes []string `yaml:"metadataTypes,omitempty"`
}

// MetadataTypeConfig declares a metadata type created at startup
type MetadataTypeConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
}

// DocumentsConfig holds document defaults
type DocumentsConfig struct {
	// Language is the language given to documents that do not specify one
	Language string `yaml:"language,omitempty"`
}

// IngestConfig configures the upload worker pool
type IngestConfig struct {
	Workers   int `yaml:"workers,omitempty"`
	QueueSize int `yaml:"queueSize,omitempty"`
}

// SchedulerConfig configures periodic source checks
type SchedulerConfig struct {
	PollingInterval     string `yaml:"pollingInterval,omitempty"`
	MaxConcurrentChecks int    `yaml:"maxConcurrentChecks,omitempty"`
}

// StagingConfig configures staging folder previews
type StagingConfig struct {
	ImageTimeout string `yaml:"imageTimeout,omitempty"`
}

// StorageConfig lists the defined storages
type StorageConfig struct {
	SourceCache   *StorageBackendConfig `yaml:"sourceCache,omitempty"`
	SharedUploads *StorageBackendConfig `yaml:"sharedUploads,omitempty"`
	Documents     *StorageBackendConfig `yaml:"documents,omitempty"`
}

// StorageBackendConfig selects a storage backend and its arguments
type StorageBackendConfig struct {
	// Backend is one of file, memory or url
	Backend string `yaml:"backend"`

	// Arguments are backend specific: location for file, url for url
	Arguments map[string]string `yaml:"arguments,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Driver is sqlite or postgres, defaults to sqlite
	Driver string `yaml:"driver,omitempty"`

	// Path is the SQLite database file, defaults to <dataDir>/docsource.db
	Path string `yaml:"path,omitempty"`

	Host            string `yaml:"host,omitempty"`
	Port            int    `yaml:"port,omitempty"`
	User            string `yaml:"user,omitempty"`
	PasswordFile    string `yaml:"passwordFile,omitempty"`
	Database        string `yaml:"database,omitempty"`
	SSLMode         string `yaml:"sslMode,omitempty"`
	MaxOpenConns    int    `yaml:"maxOpenConns,omitempty"`
	MaxIdleConns    int    `yaml:"maxIdleConns,omitempty"`
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// AuthConfig defines authentication settings
type AuthConfig struct {
	Mode        string     `yaml:"mode"`
	JWT         *JWTConfig `yaml:"jwt,omitempty"`
	PublicPaths []string   `yaml:"publicPaths,omitempty"`
}

// JWTConfig lists the token providers accepted in jwt mode
type JWTConfig struct {
	Realm     string              `yaml:"realm,omitempty"`
	Providers []JWTProviderConfig `yaml:"providers"`
}

// JWTProviderConfig defines one token issuer
type JWTProviderConfig struct {
	Name     string `yaml:"name"`
	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`

	// Algorithm is one of HS256, HS384, HS512, RS256, ES256 (default HS256)
	Algorithm string `yaml:"algorithm,omitempty"`

	// KeyFile holds the HMAC secret or the PEM encoded public key
	KeyFile string `yaml:"keyFile"`
}

// AuthzConfig defines authorization settings
type AuthzConfig struct {
	// PolicyFile replaces the built-in cedar policies
	PolicyFile   string              `yaml:"policyFile,omitempty"`
	ScopeMapping []ScopeMappingEntry `yaml:"scopeMapping,omitempty"`
}

// ScopeMappingEntry maps a token scope to granted actions
type ScopeMappingEntry struct {
	Scope   string   `yaml:"scope"`
	Actions []string `yaml:"actions"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates configuration from YAML bytes
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.Database.validate(); err != nil {
		return err
	}

	labels := make(map[string]bool)
	for i, src := range c.Sources {
		if src.Label == "" {
			return fmt.Errorf("sources[%d]: label is required", i)
		}
		prefix := fmt.Sprintf("sources[%d] (%s)", i, src.Label)
		if labels[src.Label] {
			return fmt.Errorf("%s: duplicate source label", prefix)
		}
		labels[src.Label] = true
		if src.Backend == "" {
			return fmt.Errorf("%s: backend is required", prefix)
		}
	}

	metadataNames := make(map[string]bool)
	for i, mt := range c.MetadataTypes {
		if mt.Name == "" {
			return fmt.Errorf("metadataTypes[%d]: name is required", i)
		}
		if metadataNames[mt.Name] {
			return fmt.Errorf("metadataTypes[%d] (%s): duplicate metadata type name", i, mt.Name)
		}
		metadataNames[mt.Name] = true
	}

	for i, dt := range c.DocumentTypes {
		if dt.Label == "" {
			return fmt.Errorf("documentTypes[%d]: label is required", i)
		}
		for _, name := range dt.MetadataTypes {
			if !metadataNames[name] {
				return fmt.Errorf("documentTypes[%d] (%s): unknown metadata type '%s'", i, dt.Label, name)
			}
		}
	}

	// Unset storages fall back to directories under the data dir and need no checks
	if err := validateStorage("storage.sourceCache", c.Storage.SourceCache); err != nil {
		return err
	}
	if err := validateStorage("storage.sharedUploads", c.Storage.SharedUploads); err != nil {
		return err
	}
	if err := validateStorage("storage.documents", c.Storage.Documents); err != nil {
		return err
	}

	if err := validateDuration("scheduler.pollingInterval", c.Scheduler.PollingInterval); err != nil {
		return err
	}
	if err := validateDuration("staging.imageTimeout", c.Staging.ImageTimeout); err != nil {
		return err
	}
	// Zero selects the default
	if c.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers must not be negative")
	}
	if c.Ingest.QueueSize < 0 {
		return fmt.Errorf("ingest.queueSize must not be negative")
	}

	if err := c.Auth.validate(); err != nil {
		return err
	}
	if err := c.Authz.validate(); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if d == nil {
		return nil
	}
	switch d.Driver {
	case "", DatabaseDriverSQLite:
		// The file path defaults to the data dir
		return nil
	case DatabaseDriverPostgres:
		if d.Host == "" {
			return fmt.Errorf("database.host is required for postgres")
		}
		if d.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
		if d.User == "" {
			return fmt.Errorf("database.user is required for postgres")
		}
		if d.ConnMaxLifetime != "" {
			if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
				return fmt.Errorf("database.connMaxLifetime must be a valid duration: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("database.driver must be %s or %s, got %s",
			DatabaseDriverSQLite, DatabaseDriverPostgres, d.Driver)
	}
}

func validateStorage(name string, s *StorageBackendConfig) error {
	if s == nil {
		return nil
	}
	switch s.Backend {
	case StorageBackendFile:
		if s.Arguments["location"] == "" {
			return fmt.Errorf("%s: arguments.location is required for the file backend", name)
		}
	case StorageBackendMemory:
		// No arguments
	case StorageBackendURL:
		if s.Arguments["url"] == "" {
			return fmt.Errorf("%s: arguments.url is required for the url backend", name)
		}
	default:
		return fmt.Errorf("%s: unsupported storage backend: %s", name, s.Backend)
	}
	return nil
}

func validateDuration(name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '5m'): %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}
	switch a.Mode {
	case "", AuthModeAnonymous:
		return nil
	case AuthModeJWT:
		if a.JWT == nil || len(a.JWT.Providers) == 0 {
			return fmt.Errorf("auth.jwt.providers must contain at least one provider in jwt mode")
		}
		for i, p := range a.JWT.Providers {
			if p.Name == "" {
				return fmt.Errorf("auth.jwt.providers[%d]: name is required", i)
			}
			if p.KeyFile == "" {
				return fmt.Errorf("auth.jwt.providers[%d] (%s): keyFile is required", i, p.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported auth mode: %s", a.Mode)
	}
}

func (a *AuthzConfig) validate() error {
	if a == nil {
		return nil
	}
	for i, entry := range a.ScopeMapping {
		if entry.Scope == "" {
			return fmt.Errorf("authz.scopeMapping[%d]: scope is required", i)
		}
		for _, action := range entry.Actions {
			if !isKnownAction(action) {
				return fmt.Errorf("authz.scopeMapping[%d] (%s): unknown action '%s'", i, entry.Scope, action)
			}
		}
	}
	return nil
}

// GetScopeMapping returns the configured scope mapping or the default one
func (a *AuthzConfig) GetScopeMapping() []ScopeMappingEntry {
	if a == nil || len(a.ScopeMapping) == 0 {
		return DefaultScopeMapping
	}
	return a.ScopeMapping
}

func isKnownAction(action string) bool {
	for _, known := range AllActions {
		if known == action {
			return true
		}
	}
	return false
}

// GetDataDir returns the data directory, defaulting to the XDG data home
func (c *Config) GetDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.DataHome, defaultDataDirectoryName)
}

// GetDatabaseDriver returns the configured database driver
func (c *Config) GetDatabaseDriver() string {
	if c.Database == nil || c.Database.Driver == "" {
		return DatabaseDriverSQLite
	}
	return c.Database.Driver
}

// GetSQLitePath returns the SQLite database file path
func (c *Config) GetSQLitePath() string {
	if c.Database != nil && c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.GetDataDir(), "docsource.db")
}

// GetLanguage returns the default document language
func (c *Config) GetLanguage() string {
	if c.Documents.Language == "" {
		return defaultLanguage
	}
	return c.Documents.Language
}

// GetIngestWorkers returns the number of upload workers
func (c *Config) GetIngestWorkers() int {
	if c.Ingest.Workers == 0 {
		return defaultIngestWorkers
	}
	return c.Ingest.Workers
}

// GetIngestQueueSize returns the upload queue capacity
func (c *Config) GetIngestQueueSize() int {
	if c.Ingest.QueueSize == 0 {
		return defaultIngestQueueSize
	}
	return c.Ingest.QueueSize
}

// GetPollingInterval returns the scheduler base polling interval
func (c *Config) GetPollingInterval() time.Duration {
	if d, err := time.ParseDuration(c.Scheduler.PollingInterval); err == nil && d > 0 {
		return d
	}
	return defaultPollingInterval
}

// GetMaxConcurrentChecks returns how many periodic checks may run at once
func (c *Config) GetMaxConcurrentChecks() int {
	if c.Scheduler.MaxConcurrentChecks <= 0 {
		return defaultMaxChecks
	}
	return c.Scheduler.MaxConcurrentChecks
}

// GetImageTimeout returns the staging file image generation timeout
func (c *Config) GetImageTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Staging.ImageTimeout); err == nil && d > 0 {
		return d
	}
	return defaultImageTimeout
}

// GetScanimagePath returns the scanimage binary path
func (c *Config) GetScanimagePath() string {
	if c.ScanimagePath == "" {
		return defaultScanimagePath
	}
	return c.ScanimagePath
}

// GetSourceCacheStorage returns the staging file cache storage, defaulting to <dataDir>/cache
func (c *Config) GetSourceCacheStorage() StorageBackendConfig {
	return c.storageOrDefault(c.Storage.SourceCache, "cache")
}

// GetSharedUploadsStorage returns the shared upload storage, defaulting to <dataDir>/uploads
func (c *Config) GetSharedUploadsStorage() StorageBackendConfig {
	return c.storageOrDefault(c.Storage.SharedUploads, "uploads")
}

// GetDocumentsStorage returns the document file storage, defaulting to <dataDir>/documents
func (c *Config) GetDocumentsStorage() StorageBackendConfig {
	return c.storageOrDefault(c.Storage.Documents, "documents")
}

func (c *Config) storageOrDefault(s *StorageBackendConfig, dir string) StorageBackendConfig {
	if s != nil {
		return *s
	}
	return StorageBackendConfig{
		Backend:   StorageBackendFile,
		Arguments: map[string]string{"location": filepath.Join(c.GetDataDir(), dir)},
	}
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from DOCSOURCE_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: password file, as mounted from a Kubernetes secret
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	// Priority 2: environment variable
	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable", EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection URL with the password URL-escaped
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	port := d.Port
	if port == 0 {
		port = 5432
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		port,
		d.Database,
		sslMode,
	), nil
}
