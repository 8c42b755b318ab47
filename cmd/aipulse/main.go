package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aipulse",
		Short:         "Daily AI news digest with reader engagement tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(reportCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(openCmd())
	root.AddCommand(shareCmd())
	root.AddCommand(heatCmd())
	root.AddCommand(trafficCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func reportCmd() *cobra.Command {
	var (
		date       string
		strategy   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Load and print the digest for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), date, strategy, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "static, generated, remote or collected (default: from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func collectCmd() *cobra.Command {
	var (
		date    string
		sources []string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run the live collectors for a date and list what they found",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), date, sources)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to collect YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific collectors (hn, rss)")
	return cmd
}

func openCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Record a view of an item and print its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd.Context(), date, args[0])
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default: today, UTC)")
	return cmd
}

func shareCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Record a share of an item and print the share text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShare(cmd.Context(), date, args[0])
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default: today, UTC)")
	return cmd
}

func heatCmd() *cobra.Command {
	var (
		date       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "heat",
		Short: "Show category heat for a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeat(cmd.Context(), date, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func trafficCmd() *cobra.Command {
	var (
		days       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "Show daily traffic for the trailing window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraffic(cmd.Context(), days, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "window size in days")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with daily scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
