package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/config"
)

var (
	templateKind  string
	templateForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage analyzer config files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a config template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(args[0], templateKind, templateForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config template to %s\n", templateKind, args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate an existing config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "validated config at %s\n", args[0])
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&templateKind, "kind", "all", "template kind: uart|spi|i2c|all")
	configInitCmd.Flags().BoolVar(&templateForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
