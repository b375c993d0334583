package handlers

import (
	"net/http"

	"github.com/Soumabha100/X-clone-backend/internal/middleware"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postService       *services.PostService
	engagementService *services.EngagementService
	feedService       *services.FeedService
	maxUploadSize     int64
	logger            *logger.Logger
}

func NewPostHandler(
	postService *services.PostService,
	engagementService *services.EngagementService,
	feedService *services.FeedService,
	opts *Options,
	logger *logger.Logger,
) *PostHandler {
	return &PostHandler{
		postService:       postService,
		engagementService: engagementService,
		feedService:       feedService,
		maxUploadSize:     opts.MaxUploadSize,
		logger:            logger,
	}
}

// CreatePost 图片通过 multipart 的 image 字段上传
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	image, closeImage, err := formUpload(c, "image", h.maxUploadSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer closeImage()

	post, err := h.postService.CreatePost(c.Request.Context(), middleware.GetUserID(c), &req, image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Post created successfully", gin.H{"post": post})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.feedService.GetPostByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Post fetched successfully", gin.H{"post": post})
}

func (h *PostHandler) EditPost(c *gin.Context) {
	var req services.EditPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	post, err := h.postService.EditPost(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Post updated successfully", gin.H{"post": post})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.postService.DeletePost(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Post deleted successfully", nil)
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	post, err := h.engagementService.ToggleLike(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Like toggled successfully", gin.H{"post": post})
}

func (h *PostHandler) ToggleRetweet(c *gin.Context) {
	post, err := h.engagementService.ToggleRetweet(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Retweet toggled successfully", gin.H{"post": post})
}

func (h *PostHandler) ToggleBookmark(c *gin.Context) {
	user, err := h.engagementService.ToggleBookmark(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Bookmark toggled successfully", gin.H{"user": user})
}

func (h *PostHandler) AddComment(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	post, err := h.engagementService.AddComment(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Comment added successfully", gin.H{"post": post})
}
