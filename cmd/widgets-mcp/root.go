// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/damixnr/openai-apps-sdk/internal/version"
	"github.com/damixnr/openai-apps-sdk/pkg/config"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "widgets-mcp",
		Short: "MCP server for OpenAI Apps SDK widgets",
		Long: `widgets-mcp exposes pre-rendered HTML widgets and the tools that render
into them through a single Model Context Protocol endpoint.`,
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $WIDGETS_MCP_HOME/widgets-mcp.yaml)")

	// Widget flags
	flags.String("base-domain", "", "domain widget assets are served from (or WORKER_DOMAIN_BASE)")
	flags.String("widget-domain", "", "dedicated widget origin (or WIDGET_DOMAIN)")
	flags.Bool("strict", false, "reject duplicate resource URIs and dangling output templates")

	// Manifest and asset flags
	flags.String("manifest", "", "route manifest file (default: embedded sample)")
	flags.String("assets-url", "", "base URL of widget asset storage")
	flags.String("assets-dir", "", "local widget build directory")

	// Logging flags
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	flags.String("log-file", "", "log file (default: stderr)")

	_ = a.v.BindPFlag("widgets.base_domain", flags.Lookup("base-domain"))
	_ = a.v.BindPFlag("widgets.widget_domain", flags.Lookup("widget-domain"))
	_ = a.v.BindPFlag("widgets.strict", flags.Lookup("strict"))
	_ = a.v.BindPFlag("manifest.path", flags.Lookup("manifest"))
	_ = a.v.BindPFlag("assets.base_url", flags.Lookup("assets-url"))
	_ = a.v.BindPFlag("assets.dir", flags.Lookup("assets-dir"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("logging.file", flags.Lookup("log-file"))

	rootCmd.AddCommand(
		newServeCmd(a),
		newValidateCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}
