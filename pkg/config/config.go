package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP listen address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP listen address (e.g. :9090)
}

type StorageConfig struct {
	Path          string `yaml:"path"`
	JournalBuffer int    `yaml:"journal_buffer"`
	BatchSize     int    `yaml:"batch_size"`
}

type IndexConfig struct {
	// CompressionLevel in [0,1]: 0 biases lookup speed, 1 biases memory.
	CompressionLevel float64 `yaml:"compression_level"`
	// RLMLeaves is the leaf count for the standalone RLM baseline.
	RLMLeaves int `yaml:"rlm_leaves"`
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/hali.yaml", "hali.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Storage: StorageConfig{
			Path:          "hali_data",
			JournalBuffer: 5000,
			BatchSize:     500,
		},
		Index: IndexConfig{
			CompressionLevel: 0.5,
			RLMLeaves:        100,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.JournalBuffer <= 0 {
		cfg.Storage.JournalBuffer = 5000
	}
	if cfg.Storage.BatchSize <= 0 {
		cfg.Storage.BatchSize = 500
	}
	if cfg.Index.CompressionLevel < 0 || cfg.Index.CompressionLevel > 1 {
		cfg.Index.CompressionLevel = 0.5
	}
	if cfg.Index.RLMLeaves <= 0 {
		cfg.Index.RLMLeaves = 100
	}
}
