package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gamehub/internal/catalog"
	"gamehub/internal/config"
	"gamehub/internal/prefs"
	"gamehub/internal/render"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0"))
	featuredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ecc71")).Bold(true)
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect game catalog documents",
	}
	cmd.AddCommand(newCatalogCheckCmd())
	cmd.AddCommand(newCatalogListCmd(a))
	return cmd
}

func newCatalogCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a catalog document against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			items, err := catalog.Parse(data)
			if err != nil {
				var ve *catalog.ValidationError
				if errors.As(err, &ve) {
					for _, p := range ve.Problems {
						fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("✗"), p)
					}
					return fmt.Errorf("%s: %d problem(s)", args[0], len(ve.Problems))
				}
				return err
			}
			featured := 0
			for _, it := range items {
				if it.Featured {
					featured++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d games, %d featured\n", okStyle.Render("✓"), args[0], len(items), featured)
			return nil
		},
	}
	return cmd
}

func newCatalogListCmd(a *app) *cobra.Command {
	var (
		category string
		query    string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the games of the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := listSource(a, file)
			if err != nil {
				return err
			}
			cat := catalog.NewStore(src)
			if _, err := cat.Load(cmd.Context()); err != nil {
				return err
			}
			if category == "" {
				category = catalog.CategoryAll
			}
			r := render.New(cat, render.Options{})
			coll := r.List(cat.Filtered(category, query), nil, prefs.DefaultSettings())
			fmt.Fprint(cmd.OutOrStdout(), renderCards(cat, coll))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list games in this category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only list games whose name contains this text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the catalog from this file instead of the configured source")
	return cmd
}

func listSource(a *app, file string) (catalog.Source, error) {
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		return catalog.FSSource{FS: os.DirFS(filepath.Dir(abs)), Path: filepath.Base(abs)}, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, err
	}
	return catalogSource(cfg.Catalog, staticFS), nil
}

type itemLookup interface {
	ByID(id catalog.ID) (catalog.Item, bool)
}

func renderCards(cat itemLookup, coll render.Collection) string {
	if coll.Empty {
		return mutedStyle.Render("No games found") + "\n"
	}
	var b strings.Builder
	for _, card := range coll.Cards {
		line := fmt.Sprintf("%3d  %s  %s", card.CatalogIndex, titleStyle.Render(card.Title), categoryStyle.Render(card.Category))
		if it, ok := cat.ByID(card.ID); ok {
			if it.Rating > 0 {
				line += "  " + starLine(it.Rating)
			}
			if it.Featured {
				line += "  " + featuredStyle.Render("featured")
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	label := fmt.Sprintf("%d games", coll.Count)
	if coll.Count == 1 {
		label = "1 game"
	}
	b.WriteString(mutedStyle.Render(label))
	b.WriteByte('\n')
	return b.String()
}

func starLine(rating float64) string {
	var b strings.Builder
	for _, s := range render.Stars(rating) {
		switch s {
		case render.StarFull:
			b.WriteString("★")
		case render.StarHalf:
			b.WriteString("⯨")
		default:
			b.WriteString("☆")
		}
	}
	return featuredStyle.Render(b.String()) + mutedStyle.Render(fmt.Sprintf(" %.1f", rating))
}
