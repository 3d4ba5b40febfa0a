// Package cmd implements CLI commands using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ajp13gw",
	Short: "ajp13gw - AJP13 backend wire-protocol proxy",
	Long: `ajp13gw is a reverse-proxy backend module that speaks AJP13 to a
servlet container instead of HTTP: it encodes forwarded requests as
FORWARD_REQUEST packets, streams request bodies as DATA packets on
GET_BODY_CHUNK, and decodes SEND_HEADERS/SEND_BODY_CHUNK/END_RESPONSE
packets back into an HTTP-shaped response.

Backend codecs and companion modules load as plugins, initialized and
started in dependency order by the plugin host.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/ajp13gw/config.yml",
		"config file path")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
