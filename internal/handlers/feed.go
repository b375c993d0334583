package handlers

import (
	"net/http"

	"github.com/Soumabha100/X-clone-backend/internal/middleware"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedService *services.FeedService
	logger      *logger.Logger
}

func NewFeedHandler(feedService *services.FeedService, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// GetFeed 关注的人发布或转发的帖子，按最近活跃排序
func (h *FeedHandler) GetFeed(c *gin.Context) {
	posts, err := h.feedService.PersonalFeed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Feed fetched successfully", gin.H{"posts": posts})
}

func (h *FeedHandler) GetFollowingFeed(c *gin.Context) {
	posts, err := h.feedService.FollowingFeed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Feed fetched successfully", gin.H{"posts": posts})
}

func (h *FeedHandler) GetPublicFeed(c *gin.Context) {
	posts, err := h.feedService.PublicFeed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Feed fetched successfully", gin.H{"posts": posts})
}
