package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/raine/virtual-closet/internal/extract"
	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var item wardrobe.Item
	var category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item to the wardrobe by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			item.Category = wardrobe.ParseCategory(category)
			if category == "" {
				item.Category = wardrobe.InferCategory(item.Title, item.Description)
			}
			if item.Color == "" {
				item.Color = wardrobe.ColorFromTitle(item.Title)
			}
			stored, created, err := a.closet.Upsert(cmd.Context(), item)
			if err != nil {
				return err
			}
			printStored(cmd.OutOrStdout(), stored, created)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&item.Title, "title", "", "item title")
	f.StringVar(&item.Brand, "brand", "", "brand")
	f.StringVar(&category, "category", "", "category (guessed from the title when empty)")
	f.StringVar(&item.Price, "price", "", "price as shown in the shop")
	f.StringVar(&item.Color, "color", "", "colour (guessed from the title when empty)")
	f.StringVar(&item.Description, "description", "", "short description")
	f.StringVar(&item.ImageURL, "image", "", "image URL")
	f.StringVar(&item.SourceURL, "url", "", "product page URL")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	var flagPage extract.Page
	var textFile string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "extract <product-url>",
		Short: "Read a product page with the language model and add it",
		Long: `Sends the page text to the relay's extraction endpoint and stores the
resulting item. The page is downloaded unless --text-file is given ("-"
reads stdin). If extraction fails the item is stored with the page title and
a guessed category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := extract.Page{URL: args[0]}
			if textFile != "" {
				text, err := readText(cmd.InOrStdin(), textFile)
				if err != nil {
					return err
				}
				page.Text = text
			} else {
				fetched, err := extract.NewPageFetcher().Fetch(cmd.Context(), page.URL)
				if err != nil {
					log.Warn().Err(err).Str("url", page.URL).Msg("failed to download page")
				} else {
					page = fetched
				}
			}
			if flagPage.Title != "" {
				page.Title = flagPage.Title
			}
			if flagPage.ImageURL != "" {
				page.ImageURL = flagPage.ImageURL
			}

			relay := llm.NewRelayClient(llm.RelayOpts{URL: a.cfg.ExtractURL, Timeout: a.cfg.RelayTimeout})
			extractor, err := extract.New(relay, extract.Options{MaxPageChars: a.cfg.PromptMaxChars})
			if err != nil {
				return err
			}

			item, err := extractor.Extract(cmd.Context(), page)
			if err != nil {
				log.Warn().Err(err).Str("url", page.URL).Msg("extraction failed, storing page title only")
				item = extract.FallbackItem(page)
			}

			if dryRun {
				printItem(cmd.OutOrStdout(), item)
				return nil
			}
			stored, created, err := a.closet.Upsert(cmd.Context(), item)
			if err != nil {
				return err
			}
			printStored(cmd.OutOrStdout(), stored, created)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flagPage.ImageURL, "image", "", "product image URL (default: the page's og:image)")
	f.StringVar(&flagPage.Title, "title", "", "page title, used when extraction fails")
	f.StringVar(&textFile, "text-file", "", `file with the visible page text ("-" for stdin)`)
	f.BoolVar(&dryRun, "dry-run", false, "print the extracted item without storing it")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List wardrobe items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.closet.Wardrobe(cmd.Context())
			if err != nil {
				return err
			}
			if category != "" {
				c := wardrobe.ParseCategory(category)
				items = wardrobe.NewPartition(items, 0).Items(c)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tBRAND\tADDED")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					item.ID, item.Category, item.Title, item.Brand, item.AddedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item from the wardrobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.closet.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func readText(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return string(data), nil
}

func printStored(w io.Writer, item wardrobe.Item, created bool) {
	verb := "Updated"
	if created {
		verb = "Added"
	}
	fmt.Fprintf(w, "%s %s: %s [%s]\n", verb, item.ID, item.Title, item.Category)
}

func printItem(w io.Writer, item wardrobe.Item) {
	fields := []struct{ name, value string }{
		{"Title", item.Title},
		{"Brand", item.Brand},
		{"Category", string(item.Category)},
		{"Price", item.Price},
		{"Original price", item.OriginalPrice},
		{"Color", item.Color},
		{"Material", item.Material},
		{"Description", item.Description},
		{"Image", item.ImageURL},
		{"URL", item.SourceURL},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			fmt.Fprintf(w, "%s: %s\n", f.name, f.value)
		}
	}
}
