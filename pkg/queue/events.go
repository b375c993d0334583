package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventUserCreated    EventType = "user_created"
	EventUserUpdated    EventType = "user_updated"
	EventAccountDeleted EventType = "account_deleted"
	EventPostCreated    EventType = "post_created"
	EventPostUpdated    EventType = "post_updated"
	EventPostDeleted    EventType = "post_deleted"
	EventFollowCreated  EventType = "follow_created"
	EventFollowDeleted  EventType = "follow_deleted"
	EventLikeCreated    EventType = "like_created"
	EventLikeDeleted    EventType = "like_deleted"
	EventRetweetCreated EventType = "retweet_created"
	EventRetweetDeleted EventType = "retweet_deleted"
	EventCommentCreated EventType = "comment_created"
)

type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent 序列化 data 构造事件
func NewEvent(eventType EventType, at time.Time, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return Event{Type: eventType, Timestamp: at, Data: raw}, nil
}

// DecodeEvent 解析消息体
func DecodeEvent(msg Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// DecodeData 将事件数据解析到 dest
func (e *Event) DecodeData(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s event data: %w", e.Type, err)
	}
	return nil
}

type UserEventData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PostEventData struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

type FollowEventData struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

type EngagementEventData struct {
	UserID  string `json:"user_id"`
	PostID  string `json:"post_id"`
	OwnerID string `json:"owner_id"`
}

type CommentEventData struct {
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	OwnerID   string `json:"owner_id"`
}

type AccountDeletedEventData struct {
	UserID string `json:"user_id"`
}
