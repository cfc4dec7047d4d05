package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	markersClearIndex  string
	markersClearYes    bool
	markersDeleteIndex string
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Manage query markers for incremental updates",
}

var markersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored markers",
	Run: func(cmd *cobra.Command, args []string) {
		store := markerStore()
		all := store.ListAll()
		if len(all) == 0 {
			fmt.Fprintln(os.Stderr, "No markers stored")
			return
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Index", "Query", "Last Timestamp", "Updated"})
		for _, m := range all {
			query := m.Query
			if len(query) > 40 {
				query = query[:37] + "..."
			}
			tw.AppendRow(table.Row{m.Index, query, m.LastTimestamp, m.UpdatedAt})
		}
		tw.Render()
	},
}

var markersDeleteCmd = &cobra.Command{
	Use:   "delete [query]",
	Short: "Delete the marker for one query",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := markerStore()
		if store.Delete(args[0], markersDeleteIndex) {
			fmt.Println("Marker deleted.")
		} else {
			fmt.Println("No marker found for that query and index.")
		}
	},
}

var markersClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear stored markers",
	Run: func(cmd *cobra.Command, args []string) {
		if !markersClearYes {
			target := "all markers"
			if markersClearIndex != "" {
				target = fmt.Sprintf("all %s markers", markersClearIndex)
			}
			fmt.Printf("Clear %s? [y/N] ", target)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Cancelled.")
				return
			}
		}

		count := markerStore().Clear(markersClearIndex)
		fmt.Printf("Cleared %d marker(s).\n", count)
	},
}

func init() {
	rootCmd.AddCommand(markersCmd)
	markersCmd.AddCommand(markersListCmd)
	markersCmd.AddCommand(markersDeleteCmd)
	markersCmd.AddCommand(markersClearCmd)

	markersDeleteCmd.Flags().StringVarP(&markersDeleteIndex, "index", "i", "dns", "Index the marker belongs to")
	markersClearCmd.Flags().StringVarP(&markersClearIndex, "index", "i", "", "Only clear markers for this index")
	markersClearCmd.Flags().BoolVarP(&markersClearYes, "yes", "y", false, "Skip confirmation")
}
