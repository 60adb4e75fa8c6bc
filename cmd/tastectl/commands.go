// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tastegraph/internal/app"
	"github.com/tomtom215/tastegraph/internal/database"
	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/preference"
	"github.com/tomtom215/tastegraph/internal/scheduler"
)

func (c *cli) sweepCmd() *cobra.Command {
	var full, active bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a refresh sweep now",
		Long: `Run the full or the active-user refresh sweep once, outside the cron
schedule. A full sweep resumes from the day's checkpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep := scheduler.SweepActive
			if full {
				sweep = scheduler.SweepFull
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				stats, err := a.Scheduler.RunSweep(cmd.Context(), sweep)
				if err != nil {
					return fmt.Errorf("%s sweep: %w", sweep, err)
				}
				return c.print(stats, func(w io.Writer) {
					fmt.Fprintf(w, "%s sweep: %d refreshed, %d skipped, %d failed in %d pages (%s)\n",
						stats.Sweep, stats.Refreshed, stats.Skipped, stats.Failed, stats.Pages, stats.Duration)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Refresh every user")
	cmd.Flags().BoolVar(&active, "active", false, "Refresh recently active users")
	cmd.MarkFlagsMutuallyExclusive("full", "active")
	cmd.MarkFlagsOneRequired("full", "active")
	return cmd
}

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <userID>",
		Short: "Recalculate one user's profile and recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Service.RefreshUser(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("refresh user %d: %w", userID, err)
				}
				return c.print(res, func(w io.Writer) {
					fmt.Fprintf(w, "user %d: sufficient=%t personal=%d groups=%d group_content=%d (%s)\n",
						res.UserID, res.SufficientData, res.Personal, res.Groups, res.GroupContent, res.Duration)
					if res.Profile != nil {
						fmt.Fprintf(w, "  %s\n", preference.Summary(res.Profile))
						printWeights(w, "genres", res.Profile.GenreWeights)
					}
					if len(res.FailedGroups) > 0 {
						fmt.Fprintf(w, "  failed groups: %v\n", res.FailedGroups)
					}
				})
			})
		},
	}
}

func (c *cli) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Scheduler.RunCleanup(cmd.Context())
				if err != nil {
					return fmt.Errorf("cleanup: %w", err)
				}
				return c.print(map[string]int{"deleted": n}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %d expired recommendations\n", n)
				})
			})
		},
	}
}

func (c *cli) compatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compat <userA> <userB>",
		Short: "Score the taste compatibility of two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			b, err := parseUserID(args[1])
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ap *app.App) error {
				res, err := ap.Service.CalculateCompatibility(cmd.Context(), a, b)
				if err != nil {
					return fmt.Errorf("compatibility of %d and %d: %w", a, b, err)
				}
				return c.print(res, func(w io.Writer) {
					fmt.Fprintf(w, "users %d and %d: %.3f (sufficient=%t)\n", res.UserA, res.UserB, res.Score, res.Sufficient)
					fmt.Fprintf(w, "  genre=%.3f platform=%.3f era=%.3f rating=%.3f\n",
						res.Breakdown.Genre, res.Breakdown.Platform, res.Breakdown.Era, res.Breakdown.Rating)
				})
			})
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			summary := map[string]string{
				"address":           cfg.Server.Address(),
				"database":          cfg.Database.Path,
				"upstream_mode":     cfg.Upstream.Mode,
				"lock_backend":      cfg.Lock.Backend,
				"events_backend":    cfg.Events.Backend,
				"full_sweep_cron":   cfg.Recommend.Schedule.FullSweepCron,
				"active_sweep_cron": cfg.Recommend.Schedule.ActiveSweepCron,
			}
			return c.print(summary, func(w io.Writer) {
				fmt.Fprintln(w, "configuration valid")
				keys := make([]string, 0, len(summary))
				for k := range summary {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "  %-18s %s\n", k, summary[k])
				}
			})
		},
	})
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored row counts and the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				counts, err := a.DB.GetRecordCounts(cmd.Context())
				if err != nil {
					return err
				}
				version, err := a.DB.GetCurrentSchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				out := struct {
					SchemaVersion int `json:"schema_version"`
					database.RecordCounts
				}{version, counts}
				return c.print(out, func(w io.Writer) {
					fmt.Fprintf(w, "schema v%d: %d profiles, %d recommendations, %d feedback records\n",
						version, counts.Profiles, counts.Recommendations, counts.Feedback)
				})
			})
		},
	}
}

func printWeights(w io.Writer, label string, weights recommend.CategoryWeights) {
	top := weights.TopN(5)
	if len(top) == 0 {
		return
	}
	fmt.Fprintf(w, "  top %s:", label)
	for _, k := range top {
		fmt.Fprintf(w, " %s=%.2f", k, weights[k])
	}
	fmt.Fprintln(w)
}
