package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-tangra/go-tangra-facts/internal/config"
	"github.com/go-tangra/go-tangra-facts/internal/daemon"
	"github.com/go-tangra/go-tangra-facts/internal/gather"
	"github.com/go-tangra/go-tangra-facts/internal/sender"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var (
	cfgFile    string
	debugMode  bool
	outputFile string
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "facter",
	Short: "facter - collect and report host facts",
	Long: `facter resolves facts about the local host (processors, kernel,
memory, DMI, uptime) and prints them, or submits them to a collector.

Run without a subcommand to print facts (equivalent to 'gather').`,
	RunE: runGather,
}

var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Resolve facts and print them",
	RunE:  runGather,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Resolve facts and submit one report to the collector",
	RunE:  runSubmit,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run continuously: submit reports and poll for commands",
	RunE:  runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("facter %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/facter.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "log resolver details to stderr")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().String("collector", "", "collector address (overrides config)")
	rootCmd.PersistentFlags().String("client-secret", "", "client secret (overrides config)")

	rootCmd.AddCommand(gatherCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() log.Logger {
	level := log.LevelInfo
	if debugMode {
		level = log.LevelDebug
	}
	return log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(level))
}

func runGather(cmd *cobra.Command, args []string) error {
	report := gather.Collect(newLogger(), "", version)

	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Facts); err != nil {
			return fmt.Errorf("encode facts: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report.Facts); err != nil {
			return fmt.Errorf("encode facts: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "facts written to %s\n", outputFile)
	}
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := agentConfig(cmd)
	if err != nil {
		return err
	}

	agentID, err := gather.AgentID(cfg.StateDir)
	if err != nil {
		return err
	}

	report := gather.Collect(newLogger(), agentID, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id, err := sender.Send(ctx, cfg.CollectorAddr, cfg.ClientSecret, report)
	if err != nil {
		return fmt.Errorf("submit report: %w", err)
	}

	fmt.Printf("Report %d submitted to %s\n", id, cfg.CollectorAddr)
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := agentConfig(cmd)
	if err != nil {
		return err
	}

	agentID, err := gather.AgentID(cfg.StateDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx, newLogger(), daemon.Config{
		CollectorAddr: cfg.CollectorAddr,
		ClientSecret:  cfg.ClientSecret,
		AgentID:       agentID,
		Version:       version,
		Interval:      cfg.Interval,
	})
}

func agentConfig(cmd *cobra.Command) (*config.AgentConfig, error) {
	cfg, err := config.LoadAgent(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("collector"); v != "" {
		cfg.CollectorAddr = v
	}
	if v, _ := cmd.Flags().GetString("client-secret"); v != "" {
		cfg.ClientSecret = v
	}
	return cfg, nil
}
