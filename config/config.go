package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mezonai/simplechain/hasher"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/store"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStoreDirectory = "./data/chain"
	DefaultListenAddr     = ":8080"
	DefaultWriteWindowSec = 60
	DefaultLogMaxSizeMB   = 100
	DefaultLogMaxAgeDays  = 30
)

func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		Store: store.StoreConfig{
			Type:      store.LevelDBStoreType,
			Directory: DefaultStoreDirectory,
		},
		Hasher: hasher.NameSHA256,
	}
}

func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		API: APIConfig{ListenAddr: DefaultListenAddr, WriteWindowSeconds: DefaultWriteWindowSec},
		Log: LogConfig{MaxSizeMB: DefaultLogMaxSizeMB, MaxAgeDays: DefaultLogMaxAgeDays},
	}
}

// LoadNodeConfig reads node.yml over the defaults. Keys absent from the file keep their default.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to open node config: ", err)
		return nil, err
	}
	defer file.Close()

	cfg := DefaultNodeConfig()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		logx.Error("CONFIG", "Failed to decode YAML: ", err)
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded node config | store=%s | hasher=%s", cfg.Store.Type, cfg.Hasher))
	return cfg, nil
}

// Validate checks the store section and that the hasher name is known
func (c *NodeConfig) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if _, err := hasher.New(c.Hasher); err != nil {
		return err
	}
	return nil
}

// LoadRuntimeConfig reads config.ini. A missing file yields the defaults.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logx.Warn("CONFIG", "Runtime config not found, using defaults: ", path)
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to load runtime config: ", err)
		return nil, err
	}
	if err := file.Section("api").MapTo(&cfg.API); err != nil {
		return nil, err
	}
	if err := file.Section("log").MapTo(&cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}
