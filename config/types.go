package config

import "github.com/mezonai/simplechain/store"

// NodeConfig is the top-level structure of node.yml
type NodeConfig struct {
	Store  store.StoreConfig `yaml:"store"`
	Hasher string            `yaml:"hasher"`
}

type APIConfig struct {
	ListenAddr string `ini:"listen_addr"`
	// Block appends allowed per window; 0 disables the limit
	WriteLimitPerClient int `ini:"write_limit_per_client"`
	WriteLimitGlobal    int `ini:"write_limit_global"`
	WriteWindowSeconds  int `ini:"write_window_seconds"`
}

type LogConfig struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
}

// RuntimeConfig holds the sections of config.ini
type RuntimeConfig struct {
	API APIConfig
	Log LogConfig
}
