package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/ajp13gw/internal/config"
	"firestige.xyz/ajp13gw/internal/log"
	pluginhost "firestige.xyz/ajp13gw/internal/plugin"
	"firestige.xyz/ajp13gw/plugins/ajp13"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize and start the registered plugins, blocking until signaled",
	Long: `serve loads the global configuration, initializes logging, brings up
every registered plugin in dependency order, and blocks until it receives
SIGINT or SIGTERM, at which point it stops plugins in reverse order.

It does not open a listening socket itself — inbound connection handling
belongs to whatever frontend embeds this codec; serve exercises the
plugin lifecycle end to end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeCommand()
	},
}

func runServeCommand() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(&log.LoggerConfig{
		Level:   cfg.Log.Level,
		Pattern: cfg.Log.Pattern,
		Time:    cfg.Log.Time,
		File:    fileAppenderFromConfig(cfg),
	})

	registry := pluginhost.DefaultRegistry()
	manager := pluginhost.NewManager(pluginhost.ManagerConfig{
		InitTimeout:         cfg.Plugin.InitTimeout,
		StartTimeout:        cfg.Plugin.StartTimeout,
		StopTimeout:         cfg.Plugin.StopTimeout,
		HealthCheckInterval: cfg.Plugin.HealthCheckInterval,
		HealthCheckTimeout:  cfg.Plugin.HealthCheckTimeout,
	}, registry)

	configs := map[string]map[string]interface{}{
		ajp13.Name: {
			"bound_ip":          cfg.Node.IP,
			"header_codes_path": cfg.Backend.HeaderCodesPath,
		},
	}

	if err := manager.Initialize(configs); err != nil {
		return fmt.Errorf("initialize plugins: %w", err)
	}
	if err := manager.Start(); err != nil {
		return fmt.Errorf("start plugins: %w", err)
	}

	log.GetLogger().Info("ajp13gw ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.GetLogger().Info("shutting down")
	return manager.Stop()
}

func fileAppenderFromConfig(cfg *config.GlobalConfig) *log.FileAppenderOpt {
	if !cfg.Log.Outputs.File.Enabled {
		return nil
	}
	return &log.FileAppenderOpt{
		Filename:   cfg.Log.Outputs.File.Path,
		MaxSize:    cfg.Log.Outputs.File.Rotation.MaxSizeMB,
		MaxBackups: cfg.Log.Outputs.File.Rotation.MaxBackups,
		MaxAge:     cfg.Log.Outputs.File.Rotation.MaxAgeDays,
		Compress:   cfg.Log.Outputs.File.Rotation.Compress,
	}
}
