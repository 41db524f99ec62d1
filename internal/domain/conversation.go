package domain

import (
	"context"
	"time"
)

const (
	RoleUser  = "user"
	RoleCoach = "coach"
)

// ConversationMessage is one turn of the coaching chat.
type ConversationMessage struct {
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"user_id" bson:"user_id"`
	Role      string     `json:"role" bson:"role"`
	Content   string     `json:"content" bson:"content"`
	Intent    IntentKind `json:"intent,omitempty" bson:"intent,omitempty"`
	ProgramID uint       `json:"program_id,omitempty" bson:"program_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

type ConversationRepository interface {
	Append(ctx context.Context, msgs ...*ConversationMessage) error
	// ListRecent returns up to limit messages, oldest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*ConversationMessage, error)
}

// KnowledgeChunk is one retrievable piece of coaching knowledge.
type KnowledgeChunk struct {
	ID      string   `json:"id" bson:"_id,omitempty" yaml:"id"`
	Title   string   `json:"title" bson:"title" yaml:"title"`
	Content string   `json:"content" bson:"content" yaml:"content"`
	Tags    []string `json:"tags" bson:"tags" yaml:"tags"`
}
