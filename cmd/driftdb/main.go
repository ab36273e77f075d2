package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/driftdb/driftdb/pkg/controller"
	"github.com/driftdb/driftdb/pkg/log"
	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/registry"
	"github.com/driftdb/driftdb/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "driftdb",
	Short:   "driftdb - a content-addressed, eventually-consistent P2P database coordinator",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("driftdb version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("directory", "", "Data directory (default: ./driftdb)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(typesCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func newController(cmd *cobra.Command) (*controller.Controller, error) {
	directory, _ := cmd.Flags().GetString("directory")
	return controller.CreateInstance(context.Background(), controller.Options{Directory: directory})
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the registered database types",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(cmd)
		if err != nil {
			return err
		}
		defer c.Stop(context.Background())
		fmt.Println(strings.Join(registry.Default().Tags(), ", "))
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create [name] [type]",
	Short: "Create a database by name and type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(cmd)
		if err != nil {
			return fmt.Errorf("start controller: %w", err)
		}
		defer c.Stop(context.Background())

		overwrite, _ := cmd.Flags().GetBool("overwrite")
		s, err := c.Create(context.Background(), args[0], args[1], types.CreateOptions{
			Overwrite: &overwrite,
		})
		if err != nil {
			return err
		}
		fmt.Println(s.Address().String())
		return nil
	},
}

func init() {
	createCmd.Flags().Bool("overwrite", false, "Recreate the database if it already exists locally")
}

var openCmd = &cobra.Command{
	Use:   "open [address-or-name]",
	Short: "Open a database and print its address and current heads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(cmd)
		if err != nil {
			return fmt.Errorf("start controller: %w", err)
		}
		defer c.Stop(context.Background())

		typeTag, _ := cmd.Flags().GetString("type")
		s, err := c.Open(context.Background(), args[0], types.OpenOptions{
			CreateOptions: types.CreateOptions{Type: typeTag},
			Create:        typeTag != "",
		})
		if err != nil {
			return err
		}
		out, err := json.Marshal(struct {
			Address string   `json:"address"`
			Type    string   `json:"type"`
			Heads   []string `json:"heads"`
		}{s.Address().String(), s.Type(), s.Heads()})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	openCmd.Flags().String("type", "", "Type to create if address-or-name doesn't already exist")
}

// serveCmd starts a controller and keeps it alive, serving Prometheus
// metrics and health endpoints until interrupted. This is the long-running
// form a peer in a driftdb cluster actually runs; the other subcommands are
// one-shot operations against a short-lived controller.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a long-running controller with metrics and health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(cmd)
		if err != nil {
			return fmt.Errorf("start controller: %w", err)
		}

		metrics.RegisterComponent("objectstore", true, "ready")
		metrics.RegisterComponent("pubsub", true, "ready")
		metrics.SetVersion(Version)

		httpAddr, _ := cmd.Flags().GetString("http-addr")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(httpAddr, mux); err != nil {
				log.Logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Logger.Info().Str("http_addr", httpAddr).Msg("driftdb serving")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Logger.Info().Msg("shutting down")
		return c.Stop(context.Background())
	},
}

func init() {
	serveCmd.Flags().String("http-addr", "127.0.0.1:9090", "Address to serve /metrics, /health, /ready, /live on")
}
