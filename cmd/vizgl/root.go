// cmd/vizgl/root.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"runtime/debug"

	"github.com/mmp/vizgl/config"
	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/util"

	"github.com/spf13/cobra"
)

// app holds the state shared by every command once the persistent flags
// have been processed.
type app struct {
	configPath string
	logLevel   string
	logDir     string
	cpuProfile string
	memProfile string

	config   *config.Config
	lg       *log.Logger
	profiler util.Profiler
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vizgl",
		Short: "vizgl renders large attributed graphs with OpenGL",
		Long: `vizgl draws a generated graph in a window using instanced, indirect or
vertex-array strategies chosen from what the OpenGL context supports. It can
also capture the attribute records encoded for a frame and inspect them.`,
		Version:            buildVersion(),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetVersionTemplate("vizgl {{.Version}}\n")

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")
	f.StringVar(&a.logLevel, "loglevel", "", "logging level: debug, info, warn, error (overrides the configuration)")
	f.StringVar(&a.logDir, "logdir", "", "log file directory (overrides the configuration)")
	f.StringVar(&a.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	f.StringVar(&a.memProfile, "memprofile", "", "write memory profile to this file")

	root.AddCommand(a.runCommand())
	root.AddCommand(a.captureCommand())
	root.AddCommand(a.inspectCommand())
	root.AddCommand(a.configCommand())
	root.AddCommand(versionCommand())

	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		c.Log.Level = a.logLevel
	}
	if a.logDir != "" {
		c.Log.Dir = a.logDir
	}
	if err := c.Validate(); err != nil {
		return err
	}
	a.config = c

	a.lg = log.New(c.Log.Level, c.Log.Dir)
	a.lg.Info("Starting", "command", cmd.CommandPath(), "config", a.configPath)

	a.profiler, err = util.CreateProfiler(a.cpuProfile, a.memProfile)
	return err
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if err := a.profiler.Cleanup(); err != nil {
		a.lg.Errorf("%v", err)
		return err
	}
	return nil
}

func buildVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "(unknown)"
	}
	v := bi.Main.Version
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			v += " " + s.Value[:12]
		}
	}
	return v
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Args:  cobra.NoArgs,
		// No configuration or logging is needed.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vizgl %s\n", buildVersion())
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.config.WriteTOML(cmd.OutOrStdout())
		},
	}
}
