package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"letterlove/internal/catalog"
)

var (
	templatesCategory  string
	templatesRecipient string
	templatesQuery     string
	templatesOutput    string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the card templates in the built-in catalog",
	Long: `List card templates, optionally filtered. Filters combine: a template
is shown only when it matches the category, the recipient and the query.

Examples:
  letterlove templates
  letterlove templates --category love
  letterlove templates --recipient partner --query anniversary -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		matches := cat.Filter(catalog.Filter{
			Category:  templatesCategory,
			Recipient: templatesRecipient,
			Query:     templatesQuery,
		})
		return writeTemplates(cmd.OutOrStdout(), templatesOutput, matches)
	},
}

func init() {
	templatesCmd.Flags().StringVar(&templatesCategory, "category", "", "category id, or \"all\"")
	templatesCmd.Flags().StringVar(&templatesRecipient, "recipient", "", "recipient tag, or \"all\"")
	templatesCmd.Flags().StringVar(&templatesQuery, "query", "", "case-insensitive text search")
	templatesCmd.Flags().StringVarP(&templatesOutput, "output", "o", "yaml", "output format: yaml or json")
}

// templateSummary is the listing shape; field definitions are omitted.
type templateSummary struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Category string   `yaml:"category" json:"category"`
	Emoji    string   `yaml:"emoji" json:"emoji"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

func writeTemplates(w io.Writer, format string, templates []catalog.Template) error {
	out := make([]templateSummary, len(templates))
	for i, t := range templates {
		out[i] = templateSummary{
			ID:       t.ID,
			Name:     t.Name,
			Category: string(t.Category),
			Emoji:    t.Emoji,
			Tags:     t.Tags,
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
