package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	media       *services.MediaService
	jwtSecret   string
	jwtExpire   int64
}

func NewUserHandler(userService *services.UserService, media *services.MediaService, jwtSecret string, jwtExpireSeconds int64) *UserHandler {
	return &UserHandler{
		userService: userService,
		media:       media,
		jwtSecret:   jwtSecret,
		jwtExpire:   jwtExpireSeconds,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 注册后用户名还是占位名，客户端应引导去补全资料
	c.JSON(http.StatusCreated, gin.H{
		"message":          "User registered successfully",
		"user":             user,
		"token":            token,
		"profile_complete": user.IsProfileComplete(),
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Login successful",
		"user":             user,
		"token":            token,
		"profile_complete": user.IsProfileComplete(),
	})
}

// GetMe 当前登录用户，客户端据 profile_complete 决定是否弹补全页
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"profile_complete": user.IsProfileComplete(),
	})
}

func (h *UserHandler) CompleteProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req services.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.CompleteProfile(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrProfileAlreadyComplete) {
			// 已补全的用户直接跳回首页
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redirect": "/"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 用户名变了，旧 token 里的还是占位名，换发一个
	token, err := middleware.GenerateToken(user.ID.String(), user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile completed successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// UploadAvatar multipart 上传头像，HEIC 自动转 JPEG
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID := middleware.GetUserID(c)

	file, err := readFormFile(c, "avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.userService.SetAvatar(c.Request.Context(), userID, h.media, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Avatar updated successfully",
		"avatar_url": url,
	})
}

// GetProfile 公开主页，带上观察者视角的 is_following
func (h *UserHandler) GetProfile(c *gin.Context) {
	username := c.Param("username")
	viewerID := middleware.GetUserID(c)

	profile, err := h.userService.GetProfile(c.Request.Context(), username, viewerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Follow(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("id")

	if err := h.userService.Follow(c.Request.Context(), userID, targetID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Followed successfully"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("id")

	if err := h.userService.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully"})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	offset, limit := pageParams(c)

	users, err := h.userService.GetFollowers(c.Request.Context(), userID, offset, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	offset, limit := pageParams(c)

	users, err := h.userService.GetFollowing(c.Request.Context(), userID, offset, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
