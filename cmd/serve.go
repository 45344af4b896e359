package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/mezonai/simplechain/api"
	"github.com/mezonai/simplechain/events"
	"github.com/mezonai/simplechain/exception"
	"github.com/mezonai/simplechain/ledger"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/monitoring"
	"github.com/mezonai/simplechain/ratelimit"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize the chain and serve it over HTTP until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Override [api] listen_addr from the runtime config")
}

func runServer(ctx context.Context) error {
	monitoring.InitMetrics()

	bus := events.NewEventBus()
	n, err := openNode(ledger.WithEventBus(bus))
	if err != nil {
		return err
	}
	defer n.close()

	if err := n.ledger.Initialize(); err != nil {
		return err
	}

	subID, ch := bus.Subscribe()
	defer bus.Unsubscribe(subID)
	exception.SafeGo("EventLogger", func() {
		for ev := range ch {
			logx.Debug("EVENT", fmt.Sprintf("%s | height=%d | at=%s", ev.Type(), ev.Height(), ev.Timestamp().Format(time.RFC3339)))
		}
	})

	addr := n.runtime.API.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}
	server := api.NewAPIServer(n.ledger, addr)
	apiCfg := n.runtime.API
	server.WriteLimiter = ratelimit.NewWriteLimiter(apiCfg.WriteLimitPerClient, apiCfg.WriteLimitGlobal,
		time.Duration(apiCfg.WriteWindowSeconds)*time.Second)

	serveErr := make(chan error, 1)
	exception.SafeGo("APIServer", func() {
		serveErr <- server.Start()
	})

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logx.Info("CMD", "Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error("CMD", "Graceful shutdown failed: ", err)
		return err
	}
	return nil
}
