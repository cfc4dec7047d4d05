package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cetus-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure Cetus CLI settings",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Set the API key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		err := config.SetAPIKey(key)
		if err != nil {
			fmt.Printf("Error setting API key: %v\n", err)
			return
		}
		fmt.Println("API key set successfully.")
	},
}

var getKeyCmd = &cobra.Command{
	Use:   "get-key",
	Short: "Get the current API key",
	Run: func(cmd *cobra.Command, args []string) {
		key := config.GetAPIKey()
		if key == "" {
			fmt.Println("API key is not set.")
		} else {
			fmt.Printf("Current API key: %s\n", key)
		}
	},
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value (api_key, host, timeout, since_days)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Set(args[0], args[1]); err != nil {
			exitErr(err)
		}
		fmt.Printf("Set %s successfully.\n", args[0])
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		all := config.All()
		for _, key := range []string{config.KeyAPIKey, config.KeyHost, config.KeyTimeout, config.KeySinceDays} {
			fmt.Printf("%s: %s\n", key, all[key])
		}
		if path, err := config.FilePath(); err == nil {
			fmt.Printf("\nConfig file: %s\n", path)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(getKeyCmd)
	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(showCmd)
}
