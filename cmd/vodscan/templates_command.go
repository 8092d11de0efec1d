package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/milam/VodParser/internal/templates"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the marker template catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cat, err := templates.Load(cfg.Paths.TemplatesDir, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, templatesTable(cat))
			if len(cat.Missing) > 0 {
				fmt.Fprintf(out, "Missing images: %s\n", strings.Join(cat.Missing, ", "))
			}
			return nil
		},
	}
}

func templatesTable(cat *templates.Catalog) string {
	rows := make([][]string, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		size := e.Image.Bounds().Size()
		rows = append(rows, []string{
			e.Name,
			displayName(e.Name),
			strconv.FormatFloat(e.Threshold, 'f', 2, 64),
			fmt.Sprintf("%dx%d", size.X, size.Y),
		})
	}
	return tableView{
		Title:   cat.Dir,
		Headers: []string{"Name", "Display", "Threshold", "Size"},
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
		Rows:    rows,
	}.render()
}

// displayName turns a template file name such as "soldier_76" into
// "Soldier 76".
func displayName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(name))
	return cases.Title(language.Und).String(name)
}
