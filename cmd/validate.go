package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/ajp13gw/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the global configuration file",
	Long: `Validate the global configuration file without starting the plugin host.

Examples:
  ajp13gw validate -c config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand()
	},
}

func runValidateCommand() {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		exitWithError("config validation failed", err)
		return
	}

	fmt.Printf("VALID: node %s (%s) — max_packet_size=%d log_level=%s\n",
		cfg.Node.Hostname,
		cfg.Node.IP,
		cfg.Backend.MaxPacketSize,
		cfg.Log.Level,
	)
}
