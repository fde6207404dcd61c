// Command vistle-module hosts one module process's shared-memory store,
// session-key MAC, metrics registry and optional debug API, following
// the cobra root-command-plus-subcommand shape of cmd/arx/main.go
// generalized from a building-data CLI to a pipeline module host.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vistle-sys/vistle/internal/debugapi"
	"github.com/vistle-sys/vistle/internal/sessionkey"
	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/vconfig"
	"github.com/vistle-sys/vistle/internal/vlog"
	"github.com/vistle-sys/vistle/internal/vmetrics"
	"github.com/vistle-sys/vistle/internal/vversion"
)

var (
	configPath string
	baseDir    string
	creatorID  string
	owner      bool
)

var rootCmd = &cobra.Command{
	Use:           "vistle-module",
	Short:         "Host a Vistle shared-memory object store and its optional debug/metrics surfaces",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "directory holding the store's attach marker")
	rootCmd.PersistentFlags().StringVar(&creatorID, "id", "module", "this process's creator ID within the store")
	rootCmd.PersistentFlags().BoolVar(&owner, "owner", false, "create the store instead of attaching to an existing one")

	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(vversion.Banner())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Attach to (or create) the shared-memory store and block serving the debug/metrics surfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := vconfig.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		vlog.Configure(logrus.InfoLevel, cfg.LogJSON)

		if err := sessionkey.Initialize(32); err != nil {
			return fmt.Errorf("initialize session key: %w", err)
		}

		var store *shmem.Store
		if owner {
			store, err = shmem.CreateOwner(cfg, baseDir, creatorID)
		} else {
			store, err = shmem.Attach(cfg, baseDir, cfg.StoreID, creatorID)
		}
		if err != nil {
			return fmt.Errorf("attach to store: %w", err)
		}
		defer store.Detach()
		vlog.WithFields(map[string]interface{}{"store": store.ID(), "owner": owner}).Info("attached to store")

		reg := prometheus.NewRegistry()
		metrics := vmetrics.New(reg)

		var servers []*http.Server
		if cfg.DebugAPIEnabled {
			dbg := debugapi.New(store)
			srv := &http.Server{Addr: cfg.DebugAPIAddr, Handler: dbg.Handler()}
			servers = append(servers, srv)
			go func() {
				vlog.WithField("addr", cfg.DebugAPIAddr).Info("debug API listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					vlog.WithError(err).Error("debug API server failed")
				}
			}()
		}
		stopSampling := make(chan struct{})
		if cfg.MetricsEnabled {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: ":9100", Handler: mux}
			servers = append(servers, srv)
			go func() {
				vlog.WithField("addr", ":9100").Info("metrics endpoint listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					vlog.WithError(err).Error("metrics server failed")
				}
			}()
			go sampleStoreStats(store, metrics, stopSampling)
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		vlog.Infof("shutting down")
		close(stopSampling)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				vlog.WithError(err).Warn("server shutdown error")
			}
		}
		return nil
	},
}

// sampleStoreStats polls the store's occupancy into the gauge pair
// until stop is closed, since shmem.Store has no change-notification
// hook to push updates from instead.
func sampleStoreStats(store *shmem.Store, metrics *vmetrics.Metrics, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st := store.Stats()
			metrics.StoreUsedBytes.Set(float64(st.UsedBytes))
			metrics.StoreEntryCount.Set(float64(st.EntryCount))
		case <-stop:
			return
		}
	}
}
