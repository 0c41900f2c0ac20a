package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/config"
	"github.com/pressroom/pressroom/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the pressroom home directory",
	Long: `Create the pressroom home directory and write a default config file.

The config references API keys through environment variables:
  export DEEPSEEK_API_KEY=...
  export GEMINI_API_KEY=...
  export WECHAT_APP_ID=...      # optional, enables publishing
  export WECHAT_APP_SECRET=...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			fmt.Printf("Config already exists at %s (use --force to overwrite)\n", h.ConfigPath())
			return nil
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Initialized pressroom home at %s\n", h.Path())
		fmt.Printf("Config written to %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
