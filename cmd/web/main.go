package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed static/*
var embeddedStatic embed.FS

type app struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "web",
		Short:         "Game hub web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("GAMEHUB_CONFIG"), "path to a YAML config file")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newCatalogCmd(a))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
