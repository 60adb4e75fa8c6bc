// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"fmt"
	"strings"
)

type explanationTemplate struct {
	withSource string
	generic    string
}

var explanationTemplates = map[ReasonCode]explanationTemplate{
	ReasonGenreMatch:         {"Because you enjoyed %s", "Matches genres you enjoy"},
	ReasonPlatformMatch:      {"On the same platform as %s", "Available on platforms you use"},
	ReasonEraMatch:           {"From the same era as %s", "From an era you enjoy"},
	ReasonSimilarContent:     {"Similar to %s", "Similar to titles you enjoyed"},
	ReasonTrending:           {"Trending with fans of %s", "Popular right now"},
	ReasonSimilarUsers:       {"Highly rated by people who also enjoyed %s", "Liked by people with taste like yours"},
	ReasonGroupActivity:      {"Popular in %s", "Popular in your groups"},
	ReasonGroupCompatibility: {"Members of %s share your taste", "A group that shares your taste"},
	ReasonExploration:        {"Something new: try %s", "Something new to explore"},
}

// DefaultExplanation is used for reason codes without a template.
const DefaultExplanation = "Recommended for you"

// Explain renders the deterministic explanation for a reason code, using the
// source display name when one is known.
func Explain(reason ReasonCode, sourceName string) string {
	tmpl, ok := explanationTemplates[reason]
	if !ok {
		return DefaultExplanation
	}
	name := strings.TrimSpace(sourceName)
	if name == "" {
		return tmpl.generic
	}
	return fmt.Sprintf(tmpl.withSource, name)
}
