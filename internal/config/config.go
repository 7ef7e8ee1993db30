package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Graph store drivers.
const (
	GraphMemory = "memory"
	GraphSQLite = "sqlite"
)

// Index backends.
const (
	IndexMemory = "memory"
	IndexRedis  = "redis"
	IndexNeo4j  = "neo4j"
)

// Config holds the nodesearch API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Graph   GraphConfig   `yaml:"graph"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GraphConfig selects and configures the graph store.
type GraphConfig struct {
	Driver   string `yaml:"driver"` // memory, sqlite (default: memory)
	Path     string `yaml:"path"`   // sqlite database file
	SeedFile string `yaml:"seed_file"`
}

// IndexConfig selects and configures the full-text index.
type IndexConfig struct {
	Backend        string      `yaml:"backend"` // memory, redis, neo4j (default: memory)
	ReindexOnStart bool        `yaml:"reindex_on_start"`
	MaxBatchSize   int         `yaml:"max_batch_size"`
	TextKeys       []string    `yaml:"text_keys"`
	Redis          RedisConfig `yaml:"redis"`
	Neo4j          Neo4jConfig `yaml:"neo4j"`
}

// RedisConfig holds RediSearch connection and index settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Limit            int      `yaml:"limit"`
}

// Neo4jConfig holds Neo4j connection and full-text index settings.
type Neo4jConfig struct {
	URI              string `yaml:"uri"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	IndexName        string `yaml:"index_name"`
	Label            string `yaml:"label"`
	Limit            int    `yaml:"limit"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	MaxDepth            int  `yaml:"max_depth"`
	UnionBooleanOr      bool `yaml:"union_boolean_or"`
	CaseInsensitiveSort bool `yaml:"case_insensitive_sort"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Graph.Driver == "" {
		c.Graph.Driver = GraphMemory
	}
	if c.Index.Backend == "" {
		c.Index.Backend = IndexMemory
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 100
	}
	if len(c.Index.TextKeys) == 0 {
		c.Index.TextKeys = []string{"name", "type"}
	}
	if c.Index.Redis.ReadinessTimeout <= 0 {
		c.Index.Redis.ReadinessTimeout = 10
	}
	if c.Index.Neo4j.ReadinessTimeout <= 0 {
		c.Index.Neo4j.ReadinessTimeout = 10
	}
	if c.Search.MaxDepth <= 0 {
		c.Search.MaxDepth = 999
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Graph.Driver {
	case GraphMemory:
	case GraphSQLite:
		if c.Graph.Path == "" {
			return fmt.Errorf("graph.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("graph.driver must be %q or %q, got %q", GraphMemory, GraphSQLite, c.Graph.Driver)
	}

	switch c.Index.Backend {
	case IndexMemory:
	case IndexRedis:
		if len(c.Index.Redis.Addrs) == 0 {
			return fmt.Errorf("index.redis.addrs is required")
		}
	case IndexNeo4j:
		if c.Index.Neo4j.URI == "" {
			return fmt.Errorf("index.neo4j.uri is required")
		}
	default:
		return fmt.Errorf(
			"index.backend must be one of %q, %q, %q, got %q",
			IndexMemory, IndexRedis, IndexNeo4j, c.Index.Backend,
		)
	}

	for i, k := range c.Index.TextKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("index.text_keys[%d] is blank", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
