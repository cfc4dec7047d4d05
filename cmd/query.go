package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cetus-cli/internal/api"
	"cetus-cli/internal/config"
	"cetus-cli/internal/output"
)

// queryOptions holds the flags shared by 'query' and 'alerts backtest'.
type queryOptions struct {
	index     string
	media     string
	format    string
	outFile   string
	sinceDays int
	noMarker  bool
	stream    bool
	apiKey    string
	host      string
}

func (o *queryOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.index, "index", "i", "dns", "Index to search: dns, certstream, alerting")
	cmd.Flags().StringVarP(&o.media, "media", "m", "nvme", "Storage tier: nvme (fast) or all (complete)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "Output format: json, jsonl, csv, table (default json, or jsonl with --stream)")
	cmd.Flags().StringVarP(&o.outFile, "output", "o", "", "Write output to file instead of stdout")
	cmd.Flags().IntVarP(&o.sinceDays, "since-days", "d", -1, "Look back N days, 0 for full history (default from config, ignored if a marker exists)")
	cmd.Flags().BoolVar(&o.noMarker, "no-marker", false, "Ignore any existing marker and don't save a new one")
	cmd.Flags().BoolVar(&o.stream, "stream", false, "Stream results as they arrive instead of buffering")
	cmd.Flags().StringVar(&o.apiKey, "api-key", os.Getenv("CETUS_API_KEY"), "API key (or set CETUS_API_KEY)")
	cmd.Flags().StringVar(&o.host, "host", os.Getenv("CETUS_HOST"), "API host (or set CETUS_HOST)")
}

var queryCmd = &cobra.Command{
	Use:   "query [search]",
	Short: "Execute a search query",
	Long: `Execute a Lucene search query against the Cetus API.
Examples:
  cetus query 'host:*.example.com'
  cetus query 'A:192.168.1.1' --index dns --format table
  cetus query 'host:example.com' -o results.json

When writing to a file, a marker is saved after a successful run and the
next run for the same query and index fetches only newer records. Pass
--no-marker to disable this.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSearch(args[0], queryOpts); err != nil {
			exitErr(err)
		}
	},
}

var queryOpts = &queryOptions{}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryOpts.register(queryCmd)
}

// runSearch executes one logical query: marker lookup, paginated fetch,
// rendering, marker save. Shared by 'query' and 'alerts backtest'.
func runSearch(search string, o *queryOptions) error {
	index, err := api.ParseIndex(o.index)
	if err != nil {
		return err
	}
	media, err := api.ParseMedia(o.media)
	if err != nil {
		return err
	}

	formatName := o.format
	if formatName == "" {
		if o.stream {
			formatName = "jsonl"
		} else {
			formatName = "json"
		}
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if o.stream && format == output.FormatTable {
		fmt.Fprintln(os.Stderr, "Warning: table format buffers all records; use csv or jsonl for true streaming")
	}

	sinceDays := o.sinceDays
	if sinceDays < 0 {
		sinceDays = config.GetSinceDays()
	}

	// Markers only apply in file mode: stdout runs are treated as
	// exploratory and must not advance the saved position.
	store := markerStore()
	useMarker := o.outFile != "" && !o.noMarker
	var resume *api.Cursor
	if useMarker {
		if m := store.Get(search, string(index)); m != nil {
			resume = &api.Cursor{LastUUID: m.LastUUID, LastTimestamp: m.LastTimestamp}
			log.Debug().Str("last_timestamp", m.LastTimestamp).Str("last_uuid", m.LastUUID).Msg("resuming from marker")
		}
	}

	client := newClient(o.host, o.apiKey)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer = os.Stdout
	if o.outFile != "" {
		f, err := os.Create(o.outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	start := time.Now()

	var cursor *api.Cursor
	var count int
	if o.stream {
		w, werr := output.NewWriter(format, out)
		if werr != nil {
			return werr
		}
		cursor, err = client.QueryStream(ctx, search, index, media, sinceDays, resume, func(r api.Record) error {
			count++
			return w.Write(r)
		})
		// Finalize whatever was already emitted; an interrupted stream
		// still produces valid output.
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	} else {
		result, qerr := client.Query(ctx, search, index, media, sinceDays, resume)
		if qerr != nil {
			return qerr
		}
		count = result.TotalFetched
		if result.LastUUID != "" {
			cursor = &api.Cursor{LastUUID: result.LastUUID, LastTimestamp: result.LastTimestamp}
		}
		if err := output.WriteAll(format, result.Records, out); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	if o.outFile != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d records to %s in %.2fs\n", count, o.outFile, elapsed.Seconds())
	} else {
		fmt.Fprintf(os.Stderr, "%d records in %.2fs\n", count, elapsed.Seconds())
	}

	if useMarker && cursor != nil {
		if _, err := store.Save(search, string(index), cursor.LastTimestamp, cursor.LastUUID); err != nil {
			return fmt.Errorf("saving marker: %w", err)
		}
		log.Debug().Msg("saved marker for next incremental query")
	}
	return nil
}
