// Package config loads process configuration from flags, a YAML file
// and the environment.
package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen  = ":8080"
	defaultDataDir = "./data"
)

// Config is the resolved process configuration.
type Config struct {
	// Listen is the HTTP listen address of the ledger API.
	Listen string
	// DataDir holds the snapshot database and the mutation journal.
	DataDir string
}

type configYaml struct {
	Listen  string `yaml:"listen"`
	DataDir string `yaml:"data_dir"`
}

// Get resolves the configuration. A YAML file given via --config wins
// over flags; environment variables (KHATA_LISTEN, KHATA_DATA_DIR,
// optionally from a .env file) fill anything left unset.
func Get() (Config, error) {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", "", "HTTP listen address")
	dataDir := flag.String("datadir", "", "directory for snapshot db and journal")
	flag.Parse()

	var cfg Config
	if *cfgPath != "" {
		loaded, err := getYaml(*cfgPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	} else {
		cfg = Config{Listen: *listen, DataDir: *dataDir}
	}

	if cfg.Listen == "" {
		cfg.Listen = os.Getenv("KHATA_LISTEN")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("KHATA_DATA_DIR")
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}

	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	var tmp configYaml
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "parse config file")
	}

	return Config{Listen: tmp.Listen, DataDir: tmp.DataDir}, nil
}
