package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"tibiawiki-api/pkg/infobox"

	"github.com/spf13/cobra"
)

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func schemaFor(template string) (*infobox.Schema, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	s, ok := reg.Schema(template)
	if !ok {
		return nil, fmt.Errorf("no schema for template %q", template)
	}
	return s, nil
}

func newParseCommand() *cobra.Command {
	var template string
	var all bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the infobox of an article as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := schemaFor(template)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var out any
			if all {
				recs, _, err := schema.ParseAll(text)
				if err != nil {
					return err
				}
				out = recs
			} else {
				rec, _, err := schema.Parse(text)
				if err != nil {
					return err
				}
				out = rec
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "Item", "Infobox template name")
	cmd.Flags().BoolVar(&all, "all", false, "Print every infobox of the template as an array")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "render FILE RECORD.json",
		Short: "Write a JSON record into an article and print the new text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := schemaFor(template)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			rec, err := schema.DecodeRecord(data)
			if err != nil {
				return err
			}
			out, err := schema.Edit(text, rec)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "Item", "Infobox template name")
	return cmd
}

func newSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the loaded template schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEMPLATE\tRESOURCE\tCATEGORY\tFIELDS")
			for _, s := range reg.Schemas {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Template, s.Resource, s.Category, len(s.Fields))
			}
			return tw.Flush()
		},
	}
}
