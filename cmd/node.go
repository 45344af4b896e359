package cmd

import (
	"fmt"

	"github.com/mezonai/simplechain/config"
	"github.com/mezonai/simplechain/hasher"
	"github.com/mezonai/simplechain/ledger"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/store"
	"gopkg.in/natefinch/lumberjack.v2"
)

// node bundles what every command needs
type node struct {
	ledger  *ledger.Ledger
	store   store.BlockStore
	runtime *config.RuntimeConfig
}

func (n *node) close() {
	n.store.MustClose()
}

// openNode loads both config files, installs the file logger and opens the configured store
func openNode(opts ...ledger.Option) (*node, error) {
	runtimeCfg, err := config.LoadRuntimeConfig(runtimeConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load runtime config: %w", err)
	}
	initializeFileLogger(runtimeCfg.Log)

	nodeCfg, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load node config: %w", err)
	}

	h, err := hasher.New(nodeCfg.Hasher)
	if err != nil {
		return nil, err
	}

	bs, err := store.CreateStore(&nodeCfg.Store)
	if err != nil {
		logx.Error("CMD", "Failed to open block store: ", err)
		return nil, err
	}

	return &node{
		ledger:  ledger.NewLedger(bs, h, opts...),
		store:   bs,
		runtime: runtimeCfg,
	}, nil
}

// initializeFileLogger switches logx to a rotating file when one is configured
func initializeFileLogger(cfg config.LogConfig) {
	if cfg.File == "" {
		return
	}
	logx.InitWithOutput(&lumberjack.Logger{
		Filename: cfg.File,
		MaxSize:  cfg.MaxSizeMB,
		MaxAge:   cfg.MaxAgeDays,
	})
}
