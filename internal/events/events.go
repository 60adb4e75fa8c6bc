// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

// Topics.
const (
	TopicFeedback  = "recommendation.feedback"
	TopicRefreshed = "recommendation.refreshed"
)

// FeedbackEvent is published after a lifecycle operation appended a feedback
// record: a rating, a dismissal or a positive action.
type FeedbackEvent struct {
	EventID          string                   `json:"event_id"`
	RecommendationID string                   `json:"recommendation_id"`
	UserID           int64                    `json:"user_id"`
	Kind             recommend.Kind           `json:"kind"`
	CandidateID      int64                    `json:"candidate_id"`
	ReasonCode       recommend.ReasonCode     `json:"reason_code"`
	Action           recommend.FeedbackAction `json:"action"`
	Classification   recommend.Classification `json:"classification"`
	Rating           *int                     `json:"rating,omitempty"`
	OccurredAt       time.Time                `json:"occurred_at"`
}

// NewFeedbackEvent builds the event for a feedback record. The record id is
// reused as the event id so redeliveries deduplicate.
func NewFeedbackEvent(fb *recommend.FeedbackRecord) FeedbackEvent {
	return FeedbackEvent{
		EventID:          fb.ID,
		RecommendationID: fb.RecommendationID,
		UserID:           fb.UserID,
		Kind:             fb.Kind,
		CandidateID:      fb.CandidateID,
		ReasonCode:       fb.ReasonCode,
		Action:           fb.Action,
		Classification:   fb.Classification,
		Rating:           fb.Rating,
		OccurredAt:       fb.CreatedAt,
	}
}

// RefreshedEvent is published after a user's profile and stored
// recommendations were regenerated.
type RefreshedEvent struct {
	EventID        string  `json:"event_id"`
	UserID         int64   `json:"user_id"`
	Confidence     float64 `json:"confidence"`
	SufficientData bool    `json:"sufficient_data"`

	// Counts of recommendations returned by each generation entry point.
	Personal     int `json:"personal"`
	Groups       int `json:"groups"`
	GroupContent int `json:"group_content"`

	// FailedGroups lists groups whose content generation failed.
	FailedGroups []int64 `json:"failed_groups,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewRefreshedEvent returns an event with a fresh id.
func NewRefreshedEvent(userID int64, at time.Time) RefreshedEvent {
	return RefreshedEvent{EventID: uuid.NewString(), UserID: userID, OccurredAt: at}
}
