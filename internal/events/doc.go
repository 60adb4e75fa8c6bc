// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package events publishes recommendation domain events through Watermill.
//
// Two topics are emitted by the service layer after successful mutations:
//
//   - recommendation.feedback: a rating, dismissal or positive action was
//     recorded (FeedbackEvent, keyed by the feedback record id)
//   - recommendation.refreshed: a user's profile and stored recommendations
//     were regenerated (RefreshedEvent)
//
// The memory backend uses Watermill's gochannel pub/sub and supports
// in-process subscribers. The nats backend publishes to core NATS subjects
// named after the topics through watermill-nats. Payloads are JSON.
//
// Publishing is best effort: callers log failures and never roll back the
// mutation that produced the event.
package events
