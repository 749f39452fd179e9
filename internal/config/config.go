package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StoreConfig struct {
	// Backend selects the persistence layer: "memory", "sqlite",
	// "memgraph" or "fuseki".
	Backend string `toml:"backend"`

	SQLitePath string `toml:"sqlite_path"`

	FusekiURL      string `toml:"fuseki_url"`
	FusekiDataset  string `toml:"fuseki_dataset"`
	FusekiUser     string `toml:"fuseki_user"`
	FusekiPassword string `toml:"fuseki_password"`

	MemgraphURI      string `toml:"memgraph_uri"`
	MemgraphUser     string `toml:"memgraph_user"`
	MemgraphPassword string `toml:"memgraph_password"`
}

type HarmonizationConfig struct {
	TargetNamespace string `toml:"target_namespace"`
	RulesPath       string `toml:"rules_path"`
}

type OntologyConfig struct {
	Directory string `toml:"directory"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Store         StoreConfig         `toml:"store"`
	Harmonization HarmonizationConfig `toml:"harmonization"`
	Ontology      OntologyConfig      `toml:"ontology"`
	Logging       LoggingConfig       `toml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Backend:       "memory",
			SQLitePath:    "loom.db",
			FusekiURL:     "http://localhost:3030",
			FusekiDataset: "harmonized",
			MemgraphURI:   "bolt://localhost:7687",
		},
		Harmonization: HarmonizationConfig{
			TargetNamespace: "http://harmonized.local/kg/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML config file and applies environment overrides on
// top. A missing file is not an error; defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML '%s': %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to env overrides.
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "LOOM_HOST")
	setInt(&c.Server.Port, "LOOM_PORT")

	setString(&c.Store.Backend, "LOOM_STORE_BACKEND")
	setString(&c.Store.SQLitePath, "LOOM_SQLITE_PATH")
	setString(&c.Store.FusekiURL, "FUSEKI_URL")
	setString(&c.Store.FusekiDataset, "FUSEKI_DATASET")
	setString(&c.Store.FusekiUser, "FUSEKI_USER")
	setString(&c.Store.FusekiPassword, "FUSEKI_PASSWORD")
	setString(&c.Store.MemgraphURI, "MEMGRAPH_URI")
	setString(&c.Store.MemgraphUser, "MEMGRAPH_USER")
	setString(&c.Store.MemgraphPassword, "MEMGRAPH_PASSWORD")

	setString(&c.Harmonization.TargetNamespace, "LOOM_TARGET_NAMESPACE")
	setString(&c.Harmonization.RulesPath, "LOOM_RULES_PATH")
	setString(&c.Ontology.Directory, "LOOM_ONTOLOGY_DIR")

	setString(&c.Logging.Level, "LOOM_LOG_LEVEL")
	setString(&c.Logging.Format, "LOOM_LOG_FORMAT")
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite", "memgraph", "fuseki":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Harmonization.TargetNamespace == "" {
		return fmt.Errorf("harmonization.target_namespace must not be empty")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			*dst = n
		}
	}
}
