/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command sigflow-server runs one sigflow Core: the client-facing unix
// socket, the debug HTTP surface, and the engine driving every active
// subgraph at a fixed cycle period. The five pieces are registered as
// config.Component and brought up/down together by a config.Manager.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigflow/sigflow/config"
	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/logger"
	"github.com/sigflow/sigflow/nodefactory"
)

var rootLog = logger.New(os.Stderr)

func mainLog() logger.Logger { return rootLog }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		rootLog.WithError(err).Error("sigflow-server exited")
		os.Exit(1)
	}
}

// newRootCommand wires the five components eagerly (cobra needs every
// flag registered before Execute parses argv, so component construction
// can't wait for RunE the way loadConfig's plain viper.Unmarshal does).
func newRootCommand() *cobra.Command {
	var cfgFile string
	vpr := viper.New()

	core := corereg.New()
	nodeReg := nodefactory.NewRegistry()
	mgr := config.NewManager(mainLog)

	defaults := defaultConfig()
	permission := newPermissionComponent(core)
	coreg := newCoreregComponent(core, nodeReg, defaults.MinClientVersion)
	eng := newEngineComponent(coreg, defaults.MaxConcurrency, defaults.CyclePeriod)
	dbg := newDebugAPIComponent(coreg, eng, defaults.DebugListen)
	trn := newTransportComponent(coreg, defaults.SocketPath)

	mgr.Register("permission", permission)
	mgr.Register("corereg", coreg)
	mgr.Register("engine", eng)
	mgr.Register("debugapi", dbg)
	mgr.Register("transport", trn)

	cmd := &cobra.Command{
		Use:   "sigflow-server",
		Short: "runs a sigflow graph server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			rootLog.SetLevel(cfg.LogLevel)

			if _, err := version.NewVersion(cfg.MinClientVersion); err != nil {
				return fmt.Errorf("min_client_version %q is not a valid version: %w", cfg.MinClientVersion, err)
			}

			color.New(color.FgCyan, color.Bold).Printf("sigflow-server")
			fmt.Printf(" listening on %s (debug %s)\n", cfg.SocketPath, cfg.DebugListen)

			coreg.minVer = cfg.MinClientVersion
			eng.maxConcurrency = cfg.MaxConcurrency
			eng.period = cfg.CyclePeriod
			dbg.listen = cfg.DebugListen
			trn.socketPath = cfg.SocketPath

			return run(mgr, trn)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to a json/yaml/toml config file")
	if err := mgr.RegisterFlag(cmd, vpr); err != nil {
		rootLog.WithError(err).Error("registering component flags")
	}
	return cmd
}

// run starts mgr's component set and blocks until a shutdown signal or
// the transport listener's accept loop exits on its own.
func run(mgr *config.Manager, trn *transportComponent) error {
	if err := mgr.Start(); err != nil {
		mgr.Stop()
		return fmt.Errorf("starting components: %w", err)
	}
	defer mgr.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		rootLog.Info("shutting down")
	case err := <-trn.Errors():
		if err != nil {
			return err
		}
	}

	return nil
}
