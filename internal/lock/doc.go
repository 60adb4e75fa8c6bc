// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package lock provides per-key mutual exclusion for user refreshes.
//
// KeyedMutex serializes work within one process. RedisLocker extends the
// guarantee across replicas with SET NX keys that expire after a TTL and are
// released with a compare-and-delete script.
package lock
