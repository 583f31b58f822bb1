package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleSystem    MessageRole = "system"
	RoleAssistant MessageRole = "assistant"
)

// ChatSession is one conversation over a document.
type ChatSession struct {
	ID         string         `gorm:"primaryKey"`
	DocumentID string         `gorm:"not null;index"` // document the session chats over
	Title      string         `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
	UserID     string         `gorm:"index"`
	Metadata   datatypes.JSON `gorm:"type:json"`
}

func (cs *ChatSession) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = now
	}
	cs.UpdatedAt = now
	return nil
}

func (cs *ChatSession) BeforeUpdate(tx *gorm.DB) (err error) {
	cs.UpdatedAt = time.Now()
	return nil
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one message in a session. Assistant messages carry
// the citations extracted from the model output as JSON.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	SessionID string         `gorm:"not null;index"`
	Role      MessageRole    `gorm:"not null;type:varchar(20)"`
	Content   string         `gorm:"type:text;not null"` // cleaned text, markers removed
	CreatedAt time.Time      `gorm:"not null"`
	Citations datatypes.JSON `gorm:"type:json"`
	Metadata  datatypes.JSON `gorm:"type:json"`
}

func (cm *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if cm.CreatedAt.IsZero() {
		cm.CreatedAt = time.Now()
	}
	return nil
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
