package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

const (
	maxWalkDepth = 25

	// EnvPrefix prefixes environment overrides, e.g. HUGSQL_DATABASE_URL.
	EnvPrefix = "HUGSQL"
)

// ConfigFileNames are searched in order during auto-discovery.
var ConfigFileNames = []string{"hugsql.yaml", "hugsql.yml"}

// Config represents the hugsql configuration from hugsql.yaml.
type Config struct {
	// Queries is the annotation file or directory used by every command
	// unless the command section overrides it.
	Queries string `mapstructure:"queries" json:"queries"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database" json:"database"`

	// Per-command configuration
	Generate GenerateConfig `mapstructure:"generate" json:"generate"`
	Verify   VerifyConfig   `mapstructure:"verify" json:"verify"`
	Doctor   DoctorConfig   `mapstructure:"doctor" json:"doctor"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" json:"url,omitempty"`
	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name,omitempty"`
	User     string `mapstructure:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode,omitempty"`
}

// Configured reports whether any connection setting was provided.
func (d DatabaseConfig) Configured() bool {
	return d.URL != "" || d.Host != ""
}

// GenerateConfig holds code generation settings.
type GenerateConfig struct {
	Queries string `mapstructure:"queries" json:"queries,omitempty"`
	Runtime string `mapstructure:"runtime" json:"runtime"`
	Output  string `mapstructure:"output" json:"output,omitempty"`
	Package string `mapstructure:"package" json:"package"`
	Type    string `mapstructure:"type" json:"type"`
}

// VerifyConfig holds verify command settings.
type VerifyConfig struct {
	Queries string `mapstructure:"queries" json:"queries,omitempty"`
	Driver  string `mapstructure:"driver" json:"driver"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Queries string `mapstructure:"queries" json:"queries,omitempty"`
	Verbose bool   `mapstructure:"verbose" json:"verbose"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queries", "db/queries")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	// Generate defaults
	v.SetDefault("generate.queries", "")
	v.SetDefault("generate.runtime", "go")
	v.SetDefault("generate.output", "")
	v.SetDefault("generate.package", "queries")
	v.SetDefault("generate.type", "Queries")

	// Verify defaults
	v.SetDefault("verify.queries", "")
	v.SetDefault("verify.driver", "pgx")

	// Doctor defaults
	v.SetDefault("doctor.queries", "")
	v.SetDefault("doctor.verbose", false)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for hugsql.yaml or hugsql.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// ResolvedQueries returns the effective queries path for a command,
// with the command-specific override taking precedence over top-level.
func (c *Config) ResolvedQueries(commandPath string) string {
	if commandPath != "" {
		return commandPath
	}
	return c.Queries
}

// Redacted returns a copy with passwords masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = "********"
	}
	if u, err := url.Parse(out.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "********")
			out.Database.URL = u.String()
		}
	}
	return &out
}

// YAML renders the config as hugsql.yaml content.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
