// Package live pushes match changes to watching clients over websockets and AMQP.
package live

import (
	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/google/uuid"
)

type MessageType string

const (
	// Cached views changed; clients should refetch them
	TypeInvalidate MessageType = "invalidate"
	TypeClock      MessageType = "clock"
)

type Message struct {
	Type    MessageType        `json:"type"`
	MatchID uuid.UUID          `json:"match_id"`
	Views   []coordinator.View `json:"views,omitempty"`
	Clock   string             `json:"clock,omitempty"`
}

func invalidateMessage(matchID uuid.UUID, views []coordinator.View) Message {
	return Message{Type: TypeInvalidate, MatchID: matchID, Views: views}
}

func clockMessage(matchID uuid.UUID, label string) Message {
	return Message{Type: TypeClock, MatchID: matchID, Clock: label}
}
