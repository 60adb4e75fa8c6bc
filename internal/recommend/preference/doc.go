// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package preference derives per-user preference profiles from interaction
// history.
//
// # Algorithm
//
// Each interaction contributes a signed value to every genre, the platform
// and the release era of its media item:
//
//	rating signal  = 0.6*(r-1)/4 + 0.4*(0.5 + (r-mean)/8)
//	contribution   = (signal-0.5)*2 + engagement
//	engagement     = completed +0.3, favorite +0.5, dropped -0.3, planned +0.1
//	time weight    = decayBase^(age/decayPeriod) * (1+recencyBoost if recent)
//
// Totals below zero are clamped and each dimension is scaled by its maximum,
// so every weight lies in [0,1] and the favourite category has weight 1.
// Feedback on content recommendations then nudges the categories of the
// recommended item by the learning rate.
//
// # Personality
//
// A fixed decision list over completion rate, rating variance, rated and
// favourite shares, weekly frequency over the last 30 days and genre entropy.
// The first matching rule wins:
//
//	BINGE_WATCHER  completion > 0.8 and >= 3 interactions per week
//	CRITIC         >= 80% rated and rating variance >= 1.0
//	EXPLORER       genre entropy >= 2.5 bits
//	COMPLETIONIST  completion >= 0.9
//	ENTHUSIAST     >= 30% favourites, or mean rating >= 4.5 with >= 50% rated
//	CASUAL         otherwise
//
// # Confidence
//
//	confidence = (1 - exp(-3n/N)) * recency
//
// where N is the high-confidence threshold and recency is 1 while the newest
// interaction is younger than the staleness window, then staleAfter/age with a
// floor of 0.5.
package preference
