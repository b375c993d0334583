package handlers

import (
	"net/http"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/internal/middleware"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService    *services.UserService
	graphService   *services.GraphService
	accountService *services.AccountService
	feedService    *services.FeedService
	jwtSecret      string
	tokenExpire    time.Duration
	secureCookie   bool
	maxUploadSize  int64
	logger         *logger.Logger
}

func NewUserHandler(
	userService *services.UserService,
	graphService *services.GraphService,
	accountService *services.AccountService,
	feedService *services.FeedService,
	opts *Options,
	logger *logger.Logger,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		graphService:   graphService,
		accountService: accountService,
		feedService:    feedService,
		jwtSecret:      opts.JWTSecret,
		tokenExpire:    opts.TokenExpire,
		secureCookie:   opts.SecureCookie,
		maxUploadSize:  opts.MaxUploadSize,
		logger:         logger,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.issueToken(c, user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.issueToken(c, user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.clearToken(c)
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.userService.GetProfile(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "User fetched successfully", gin.H{"user": user})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	viewer := middleware.GetUserID(c)
	user, err := h.userService.GetProfile(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if user.ID.String() != viewer {
		following, err := h.graphService.IsFollowing(c.Request.Context(), viewer, user.ID.String())
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		user.IsFollowing = &following
	}
	respond(c, http.StatusOK, "User fetched successfully", gin.H{"user": user})
}

// EditProfile 支持 JSON 或带 profile_image、banner_image 的 multipart 表单
func (h *UserHandler) EditProfile(c *gin.Context) {
	var req services.EditProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	profileImage, closeProfile, err := formUpload(c, "profile_image", h.maxUploadSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer closeProfile()

	bannerImage, closeBanner, err := formUpload(c, "banner_image", h.maxUploadSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer closeBanner()

	user, err := h.userService.EditProfile(c.Request.Context(), middleware.GetUserID(c), &req, profileImage, bannerImage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

func (h *UserHandler) GetBookmarks(c *gin.Context) {
	posts, err := h.feedService.BookmarkedPosts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Bookmarks fetched successfully", gin.H{"posts": posts})
}

func (h *UserHandler) Suggestions(c *gin.Context) {
	users, err := h.userService.Suggestions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", gin.H{"users": users})
}

func (h *UserHandler) GetUserPosts(c *gin.Context) {
	posts, err := h.feedService.AuthorFeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Posts fetched successfully", gin.H{"posts": posts})
}

func (h *UserHandler) Follow(c *gin.Context) {
	user, err := h.graphService.Follow(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Followed successfully", gin.H{"user": user})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	user, err := h.graphService.Unfollow(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Unfollowed successfully", gin.H{"user": user})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	result, err := h.accountService.DeleteAccount(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearToken(c)
	respond(c, http.StatusOK, "Account deleted successfully", gin.H{"deleted": result})
}

// issueToken 生成令牌并写入 httpOnly cookie
func (h *UserHandler) issueToken(c *gin.Context, user *services.UserView) (string, error) {
	token, err := middleware.GenerateToken(user.ID.String(), user.Username, h.jwtSecret, h.tokenExpire)
	if err != nil {
		return "", apperr.Internal("failed to generate token", err)
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.tokenExpire.Seconds()), "/", "", h.secureCookie, true)
	return token, nil
}

func (h *UserHandler) clearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
}
