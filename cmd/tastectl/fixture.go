// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tastegraph/internal/recommend/storage"
)

func (c *cli) fixtureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Work with collaborator fixtures",
	}

	opts := storage.DefaultGenerateOptions()
	var out string
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic collaborator fixture",
		Long: `Generate users, media, interaction histories, groups and a trending
list for fixture mode (UPSTREAM_MODE=fixture). A fixed --seed reproduces the
same users, media and groups; timestamps stay relative to the current time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := storage.GenerateFixture(opts)
			if err != nil {
				return err
			}
			if err := storage.WriteFixture(out, doc); err != nil {
				return err
			}
			summary := map[string]any{
				"path":         out,
				"media":        len(doc.Media),
				"interactions": len(doc.Interactions),
				"groups":       len(doc.Groups),
				"members":      len(doc.Members),
				"trending":     len(doc.Trending),
			}
			return c.print(summary, func(w io.Writer) {
				fmt.Fprintf(w, "wrote %s: %d media, %d interactions, %d groups, %d members\n",
					out, len(doc.Media), len(doc.Interactions), len(doc.Groups), len(doc.Members))
			})
		},
	}
	gen.Flags().IntVar(&opts.Users, "users", opts.Users, "Number of users")
	gen.Flags().IntVar(&opts.Media, "media", opts.Media, "Number of catalog items")
	gen.Flags().IntVar(&opts.Groups, "groups", opts.Groups, "Number of groups")
	gen.Flags().IntVar(&opts.InteractionsPerUser, "interactions", opts.InteractionsPerUser, "Maximum history entries per user")
	gen.Flags().Uint64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
	gen.Flags().DurationVar(&opts.Window, "window", opts.Window, "How far back interaction timestamps reach")
	gen.Flags().StringVar(&out, "out", "fixture.json", "Output path")

	cmd.AddCommand(gen)
	return cmd
}
