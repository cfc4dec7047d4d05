package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cetus-cli/internal/output"
)

var (
	alertsOwned   bool
	alertsShared  bool
	alertsType    string
	alertsAPIKey  string
	alertsHost    string
	alertsSince   string
	alertsFormat  string
	alertsOutFile string
	backtestOpts  = &queryOptions{}
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "View alert definitions and their results",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alert definitions",
	Long: `List alert definitions.
By default shows alerts you own. Use --shared to include alerts shared
with you, or --owned=false --shared for only shared alerts.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !alertsOwned && !alertsShared {
			fmt.Fprintln(os.Stderr, "Warning: --owned=false without --shared selects no alerts")
			return
		}

		client := newClient(alertsHost, alertsAPIKey)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		alerts, err := client.ListAlerts(ctx, alertsOwned, alertsShared, alertsType)
		if err != nil {
			exitErr(err)
		}
		if len(alerts) == 0 {
			fmt.Fprintln(os.Stderr, "No alerts found")
			return
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Type", "Title", "Description", "Owner"})
		for _, a := range alerts {
			owner := "You"
			if !a.Owned {
				owner = a.SharedBy
			}
			desc := a.Description
			if len(desc) > 40 {
				desc = desc[:37] + "..."
			}
			tw.AppendRow(table.Row{a.ID, a.AlertType, a.Title, desc, owner})
		}
		tw.Render()
		fmt.Fprintf(os.Stderr, "Total: %d alert(s)\n", len(alerts))
	},
}

var alertsShowCmd = &cobra.Command{
	Use:   "show [alert_id]",
	Short: "Show one alert definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			exitErr(fmt.Errorf("invalid alert id %q", args[0]))
		}

		client := newClient(alertsHost, alertsAPIKey)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		alert, err := client.GetAlert(ctx, id)
		if err != nil {
			exitErr(err)
		}
		if alert == nil {
			exitErr(fmt.Errorf("alert %d not found", id))
		}

		fmt.Printf("ID:          %d\n", alert.ID)
		fmt.Printf("Type:        %s\n", alert.AlertType)
		fmt.Printf("Title:       %s\n", alert.Title)
		fmt.Printf("Description: %s\n", alert.Description)
		fmt.Printf("Query:       %s\n", alert.SearchQuery())
		if alert.Owned {
			fmt.Println("Owner:       You")
		} else {
			fmt.Printf("Shared by:   %s\n", alert.SharedBy)
		}
	},
}

var alertsResultsCmd = &cobra.Command{
	Use:   "results [alert_id]",
	Short: "Get stored results for an alert",
	Long: `Get stored results for an alert definition.
Examples:
  cetus alerts results 123
  cetus alerts results 123 --format table
  cetus alerts results 123 --since 2025-01-01T00:00:00Z -o results.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			exitErr(fmt.Errorf("invalid alert id %q", args[0]))
		}
		format, err := output.ParseFormat(alertsFormat)
		if err != nil {
			exitErr(err)
		}

		client := newClient(alertsHost, alertsAPIKey)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := client.GetAlertResults(ctx, id, alertsSince)
		if err != nil {
			exitErr(err)
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No results found for this alert")
			return
		}

		out := os.Stdout
		if alertsOutFile != "" {
			f, err := os.Create(alertsOutFile)
			if err != nil {
				exitErr(err)
			}
			defer f.Close()
			out = f
		}
		if err := output.WriteAll(format, records, out); err != nil {
			exitErr(err)
		}
		if alertsOutFile != "" {
			fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", len(records), alertsOutFile)
		}
	},
}

var alertsBacktestCmd = &cobra.Command{
	Use:   "backtest [alert_id]",
	Short: "Replay an alert's query against the full database",
	Long: `Fetch an alert's stored query and run it through the query endpoint,
returning matching records from historical data. Takes the same flags as
'cetus query', and markers are keyed by the alert's query text.
Examples:
  cetus alerts backtest 123
  cetus alerts backtest 123 --index dns --format table
  cetus alerts backtest 123 -o results.json --since-days 30`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			exitErr(fmt.Errorf("invalid alert id %q", args[0]))
		}

		client := newClient(backtestOpts.host, backtestOpts.apiKey)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		alert, err := client.GetAlert(ctx, id)
		if err != nil {
			exitErr(err)
		}
		if alert == nil {
			exitErr(fmt.Errorf("alert %d not found", id))
		}
		search := alert.SearchQuery()
		if search == "" {
			exitErr(fmt.Errorf("alert %d has no stored query to replay", id))
		}

		fmt.Fprintf(os.Stderr, "Backtesting alert %d: %s\n", id, search)
		if err := runSearch(search, backtestOpts); err != nil {
			exitErr(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsShowCmd)
	alertsCmd.AddCommand(alertsResultsCmd)
	alertsCmd.AddCommand(alertsBacktestCmd)

	alertsListCmd.Flags().BoolVar(&alertsOwned, "owned", true, "Include alerts you own")
	alertsListCmd.Flags().BoolVar(&alertsShared, "shared", false, "Include alerts shared with you")
	alertsListCmd.Flags().StringVarP(&alertsType, "type", "t", "", "Filter by alert type: raw, terms, structured")

	alertsResultsCmd.Flags().StringVarP(&alertsSince, "since", "s", "", "Only results since this ISO 8601 timestamp")
	alertsResultsCmd.Flags().StringVarP(&alertsFormat, "format", "f", "json", "Output format: json, jsonl, csv, table")
	alertsResultsCmd.Flags().StringVarP(&alertsOutFile, "output", "o", "", "Write output to file instead of stdout")

	backtestOpts.register(alertsBacktestCmd)

	for _, c := range []*cobra.Command{alertsListCmd, alertsShowCmd, alertsResultsCmd} {
		c.Flags().StringVar(&alertsAPIKey, "api-key", os.Getenv("CETUS_API_KEY"), "API key (or set CETUS_API_KEY)")
		c.Flags().StringVar(&alertsHost, "host", os.Getenv("CETUS_HOST"), "API host (or set CETUS_HOST)")
	}
}
