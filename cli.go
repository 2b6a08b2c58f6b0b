package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"campusconnect/connect/internal/auth"
	"campusconnect/connect/internal/client"
	"campusconnect/connect/internal/marketplace"
	"campusconnect/connect/internal/models"
)

var (
	apiURL   string
	apiToken string

	searchQuery    string
	category       string
	minPrice       float64
	maxPrice       float64
	universityOnly bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List marketplace listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		board, err := newBoard(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := board.Refresh(cmd.Context()); err != nil {
			return err
		}
		return renderListings(cmd.OutOrStdout(), board.Listings())
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <listing-id>",
	Short: "Toggle a listing in your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		board, err := newBoard(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := board.Refresh(cmd.Context()); err != nil {
			return err
		}
		_, err = board.ToggleFavorite(cmd.Context(), args[0])
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{browseCmd, favoriteCmd} {
		c.Flags().StringVar(&apiURL, "api-url", envOr("CONNECT_API_URL", "http://localhost:8080"), "Base URL of the listings API")
		c.Flags().StringVar(&apiToken, "token", os.Getenv("CONNECT_TOKEN"), "Bearer token of the signed-in user")
		c.Flags().StringVarP(&searchQuery, "query", "q", "", "Search title and description")
		c.Flags().StringVarP(&category, "category", "c", string(models.CategoryAll), "all, products, housing, opportunities or community")
		c.Flags().Float64Var(&minPrice, "min", marketplace.DefaultMinPrice, "Minimum price")
		c.Flags().Float64Var(&maxPrice, "max", marketplace.DefaultMaxPrice, "Maximum price")
		c.Flags().BoolVar(&universityOnly, "university-only", false, "Only listings from your university")
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func filterFromFlags() (marketplace.FilterState, error) {
	f := marketplace.FilterState{
		SearchQuery:      searchQuery,
		SelectedCategory: models.CategoryFilter(category),
		PriceRange:       models.PriceRange{Min: minPrice, Max: maxPrice},
		UniversityOnly:   universityOnly,
	}
	return f, f.Validate()
}

func newBoard(notices io.Writer) (*marketplace.Board, error) {
	filter, err := filterFromFlags()
	if err != nil {
		return nil, err
	}

	opts := []marketplace.Option{marketplace.WithFilter(filter), marketplace.WithLogger(logger)}
	clientOpts := []client.Option{}
	if apiToken != "" {
		claims, err := auth.UnverifiedClaims(apiToken)
		if err != nil {
			return nil, fmt.Errorf("cannot read --token: %w", err)
		}
		opts = append(opts, marketplace.WithUser(claims.UserID, claims.UniversityID))
		clientOpts = append(clientOpts, client.WithToken(apiToken))
	}

	api := client.New(apiURL, clientOpts...)
	return marketplace.NewBoard(api, consoleNotifier{w: notices}, opts...), nil
}

// consoleNotifier prints board notifications to the terminal.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintln(n.w, "ok:", msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintln(n.w, "error:", msg) }

func renderListings(w io.Writer, listings []models.ListingDisplay) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintln(w, "No listings match your filters.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tPRICE\tSELLER\tVIEWS\tSAVED")
	for _, l := range listings {
		price := "-"
		if l.Price != nil {
			price = strconv.FormatFloat(*l.Price, 'f', -1, 64)
		}
		saved := ""
		if l.IsFavorited {
			saved = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			l.ID, l.ListingType, l.Title, price, l.Seller.FullName, l.Views, saved)
	}
	return tw.Flush()
}
