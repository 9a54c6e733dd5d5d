package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"reniced/adjuster"
	"reniced/cleanup"
	"reniced/config"
	"reniced/logging"
	"reniced/matcher"
	"reniced/monitor"
	"reniced/notify"
	"reniced/priority"
	"reniced/proc"
	"reniced/status"
)

var (
	showConfig bool
	logLevel   string
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

var rootCmd = &cobra.Command{
	Use:   "reniced",
	Short: "Daemon that adjusts nice values of new processes based on rules",
	Long: `reniced watches the process table and applies administrator-defined
rules to newly started processes: each rule names a command pattern, an
optional owner and the nice value such processes should run at.

Rules come from the system-wide file and from each user's
~/.reniced/config.yaml, merged by rule name.`,
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel != "" && !slices.Contains(logLevels, logLevel) {
			return fmt.Errorf("invalid log level %q, expected one of %v", logLevel, logLevels)
		}
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVar(&showConfig, "show-config", false, "print the merged rule set and exit")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

func run(cmd *cobra.Command, args []string) error {
	config.Configure()

	if showConfig {
		return printMergedConfig(cmd)
	}

	level := config.TheConfig.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Setup(level)

	cleanup.InitSignalCallback()
	if notify.Enabled() {
		notify.Init()
	}

	rules := config.LoadAll(config.TheConfig.RulesPath, config.TheConfig.HomeRoot)
	log.Infof("monitoring with %d rules, polling every %s", len(rules.Process), config.TheConfig.PollInterval)

	if config.TheConfig.StatusAddr != "" {
		status.Start(config.TheConfig.StatusAddr, rules)
	}

	table := proc.New(config.TheConfig.ProcRoot)
	adj := adjuster.New(priority.New(table), log.StandardLogger())
	mon := monitor.New(table, matcher.New(rules.Process), adj, config.TheConfig.PollInterval, log.StandardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cleanup.AddOnStopFunc(cleanup.Monitor, func(_ os.Signal) {
		cancel()
	})

	err := mon.Run(ctx)
	log.Info("monitoring stopped")
	return err
}

func printMergedConfig(cmd *cobra.Command) error {
	merged := config.LoadAll(config.TheConfig.RulesPath, config.TheConfig.HomeRoot)
	out, err := merged.Dump()
	if err != nil {
		return fmt.Errorf("error showing config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
