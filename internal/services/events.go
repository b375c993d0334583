package services

import (
	"context"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/models"
	"github.com/google/uuid"
)

// Event 点赞、评论、关注产生的领域事件
type Event struct {
	Kind   models.NotificationType
	Actor  uuid.UUID
	Owner  uuid.UUID
	PostID *uuid.UUID
	At     time.Time
}

func LikeEvent(actor, owner, postID uuid.UUID) Event {
	return Event{Kind: models.NotificationLike, Actor: actor, Owner: owner, PostID: &postID, At: time.Now()}
}

func CommentEvent(actor, owner, postID uuid.UUID) Event {
	return Event{Kind: models.NotificationComment, Actor: actor, Owner: owner, PostID: &postID, At: time.Now()}
}

func FollowEvent(actor, target uuid.UUID) Event {
	return Event{Kind: models.NotificationFollow, Actor: actor, Owner: target, At: time.Now()}
}

// EventHandler 在产生事件的同一事务中处理事件
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event) error
}
