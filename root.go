package main

import (
	"tibiawiki-api/pkg/config"
	"tibiawiki-api/pkg/infobox"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var schemaFlag string

	rootCmd := &cobra.Command{
		Use:           "tibiawiki-api",
		Short:         "JSON API over TibiaWiki infoboxes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(); err != nil {
				return err
			}
			if schemaFlag != "" {
				config.SchemaFile = schemaFlag
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schemas", "", "YAML schema file (defaults to the built-in schemas)")

	serve := newServeCommand()
	rootCmd.RunE = serve.RunE
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newSchemasCommand())

	return rootCmd
}

func loadRegistry() (*infobox.Registry, error) {
	return infobox.LoadRegistryFile(config.SchemaFile)
}
