package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/outfit"
	"github.com/raine/virtual-closet/internal/storage"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/spf13/cobra"
)

func newOutfitCmd(a *app) *cobra.Command {
	var categories []string
	var save bool

	cmd := &cobra.Command{
		Use:   "outfit [request...]",
		Short: "Suggest an outfit from the wardrobe",
		Long: `Asks the relay server to pick an outfit that fits the request, e.g.
"closet outfit dinner with friends". If the relay cannot be reached or its
answer is unusable, a simpler outfit is picked locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.closet.Wardrobe(cmd.Context())
			if err != nil {
				return err
			}

			req := outfit.Request{Items: items, Intent: strings.Join(args, " ")}
			for _, c := range categories {
				req.Categories = append(req.Categories, wardrobe.ParseCategory(c))
			}

			relay := llm.NewRelayClient(llm.RelayOpts{URL: a.cfg.RelayURL, Timeout: a.cfg.RelayTimeout})
			g := outfit.NewGenerator(relay, outfit.Options{
				MaxPerCategory: a.cfg.MaxPerCategory,
				PromptMaxChars: a.cfg.PromptMaxChars,
				CacheTTL:       a.cfg.CacheTTL,
			})
			result := g.GenerateRequest(cmd.Context(), req)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Message())
			printOutfit(out, result.Outfit.Name, result.Outfit.Reasoning, result.Outfit.Items)

			if save {
				saved, err := a.closet.SaveOutfit(cmd.Context(), result.Outfit, result.Source)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved outfit %s\n", saved.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "categories", nil, "only pick from these categories (comma separated)")
	cmd.Flags().BoolVar(&save, "save", false, "save the suggested outfit")
	return cmd
}

func newOutfitsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outfits",
		Short: "List saved outfits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outfits, err := a.closet.Outfits(cmd.Context())
			if err != nil {
				return err
			}
			if len(outfits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved outfits.")
				return nil
			}
			items, err := a.closet.Wardrobe(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range outfits {
				printSaved(cmd.OutOrStdout(), o, items)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved outfit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.closet.DeleteOutfit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted outfit %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func printSaved(w io.Writer, o storage.SavedOutfit, items []wardrobe.Item) {
	fmt.Fprintf(w, "%s  (%s, %s)\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.Source)
	printOutfit(w, o.Name, o.Reasoning, o.Resolve(items))
	fmt.Fprintln(w)
}

func printOutfit(w io.Writer, name, reasoning string, items map[wardrobe.Category]wardrobe.Item) {
	fmt.Fprintf(w, "%s\n", name)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (no items)")
	}
	for _, c := range wardrobe.Categories {
		item, ok := items[c]
		if !ok {
			continue
		}
		line := item.Title
		if item.Brand != "" {
			line += " (" + item.Brand + ")"
		}
		fmt.Fprintf(w, "  %-12s %s  [%s]\n", c+":", line, item.ID)
	}
	if reasoning != "" {
		fmt.Fprintf(w, "  %s\n", reasoning)
	}
}
