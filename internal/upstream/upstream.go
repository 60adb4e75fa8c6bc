// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/storage"
)

// Collaborators bundles the three collaborator interfaces.
type Collaborators struct {
	Interactions recommend.InteractionSource
	Catalog      recommend.Catalog
	Groups       recommend.GroupDirectory
}

// New builds the collaborators for the configured mode.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *Config, logger zerolog.Logger) (*Collaborators, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeHTTP:
		logger.Info().
			Str("interactions", cfg.InteractionsURL).
			Str("catalog", cfg.CatalogURL).
			Str("groups", cfg.GroupsURL).
			Msg("using HTTP collaborators")
		return &Collaborators{
			Interactions: NewInteractionsClient(cfg, logger),
			Catalog:      NewCatalogClient(cfg, logger),
			Groups:       NewGroupsClient(cfg, logger),
		}, nil
	default:
		fx := storage.NewFixture()
		if cfg.FixturePath != "" {
			loaded, err := storage.LoadFixture(cfg.FixturePath)
			if err != nil {
				return nil, fmt.Errorf("load collaborator fixture: %w", err)
			}
			fx = loaded
		}
		logger.Info().Str("fixture", cfg.FixturePath).Msg("using fixture collaborators")
		return &Collaborators{Interactions: fx, Catalog: fx, Groups: fx}, nil
	}
}
