package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/repo"
)

func newPurgeCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete expired durable-cache entries and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, store, closeStorage, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			n, err := store.PurgeExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries (%s)\n", n, cfg.Cache.Backend)
			return nil
		},
	}
}

func newFeaturesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the feature table and per-tier rate limits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printFeatures(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printFeatures(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Features   []access.Feature                `json:"features"`
			RateLimits map[access.Tier]access.RateLimit `json:"rate_limits"`
		}{access.Features, access.DefaultRateLimits})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tLABEL\tTIER\tBEHAVIOR\tLIMIT")
	for _, f := range access.Features {
		limit := "-"
		if f.Limit > 0 {
			limit = fmt.Sprint(f.Limit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Label, f.Tier, f.Behavior, limit)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "TIER\tPER MINUTE\tPER DAY")
	for _, t := range access.Tiers {
		rl := access.RateLimitFor(t)
		perDay := fmt.Sprint(rl.PerDay)
		if rl.PerDay == access.Unlimited {
			perDay = "unlimited"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t, rl.PerMinute, perDay)
	}
	return tw.Flush()
}

func newUsageCmd() *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize recorded feature usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, _, closeStorage, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			from := time.Now().Add(-since)
			rows, err := repo.UsageSince(cmd.Context(), db, from)
			if err != nil {
				return fmt.Errorf("usage: %w", err)
			}
			denials, err := repo.DenialsByTier(cmd.Context(), db, from)
			if err != nil {
				return fmt.Errorf("denials: %w", err)
			}
			return printUsage(cmd.OutOrStdout(), rows, denials)
		},
	}
	cmd.Flags().DurationVar(&since, "since", 7*24*time.Hour, "look-back window")
	return cmd
}

func printUsage(w io.Writer, rows []repo.FeatureUsage, denials map[string]int64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tACTION\tCOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Feature, r.Action, r.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "TIER\tDENIALS")
	for _, t := range access.Tiers {
		fmt.Fprintf(tw, "%s\t%d\n", t, denials[string(t)])
	}
	return tw.Flush()
}
