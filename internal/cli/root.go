// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configFile is the path to the YAML configuration file
	configFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "passkey-server",
	Short: "go-passkey server - WebAuthn passkey ceremony service",
	Long: `go-passkey server exposes passkey (WebAuthn) registration and
login ceremonies over HTTP. It manages single-use, time-bounded
challenges, named credentials and sign counter tracking for each user.

Configuration is read from a YAML file and can be overridden with
PASSKEY_* environment variables, e.g. PASSKEY_SERVER_PORT=9090.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is built-in development configuration)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// fallback config file location honored when --config is not given
func configPath() string {
	if configFile != "" {
		return configFile
	}
	if envConfig := os.Getenv("PASSKEY_CONFIG"); envConfig != "" {
		return envConfig
	}
	return ""
}
