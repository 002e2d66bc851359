package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/services"
)

type ReviewHandler struct {
	reviewService  *services.ReviewService
	voteService    *services.VoteService
	commentService *services.CommentService
}

func NewReviewHandler(reviewService *services.ReviewService, voteService *services.VoteService, commentService *services.CommentService) *ReviewHandler {
	return &ReviewHandler{
		reviewService:  reviewService,
		voteService:    voteService,
		commentService: commentService,
	}
}

// readFormFile 单文件读取，内存中处理
func readFormFile(c *gin.Context, field string) (*services.UploadFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file", field)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return &services.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// readFormFiles 多文件读取（images 字段）
func readFormFiles(c *gin.Context, field string) ([]*services.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	headers := form.File[field]
	files := make([]*services.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file: %w", err)
		}
		files = append(files, &services.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// CreateReview multipart 表单：评价字段+最多5张图
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req services.CreateReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files, err := readFormFiles(c, "images")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, &req, files)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review created successfully",
		"review":  review,
	})
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// Explore 最新评价流 ?sort=recent&page=1
func (h *ReviewHandler) Explore(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortRecent)
	page := queryInt(c, "page", 1)

	result, err := h.reviewService.Explore(c.Request.Context(), sortBy, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProductReviews 商品页评价 ?sort=&page=
func (h *ReviewHandler) ProductReviews(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortRecent)
	page := queryInt(c, "page", 1)

	result, stats, err := h.reviewService.ProductReviews(c.Request.Context(), c.Param("id"), sortBy, page)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": result,
		"stats":   stats,
	})
}

func (h *ReviewHandler) UserReviews(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortRecent)
	page := queryInt(c, "page", 1)

	result, err := h.reviewService.UserReviews(c.Request.Context(), c.Param("id"), sortBy, page)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) GetProduct(c *gin.Context) {
	product, stats, err := h.reviewService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"stats":   stats,
	})
}

func (h *ReviewHandler) TrendingProducts(c *gin.Context) {
	limit := queryInt(c, "limit", 10)

	products, err := h.reviewService.TrendingProducts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// Vote 每次点击走一遍状态机，返回点击后的状态
func (h *ReviewHandler) Vote(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req services.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.voteService.Vote(c.Request.Context(), c.Param("id"), userID, req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vote": result})
}

func (h *ReviewHandler) GetUserVote(c *gin.Context) {
	userID := middleware.GetUserID(c)

	vote, err := h.voteService.GetUserVote(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

func (h *ReviewHandler) AddComment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

func (h *ReviewHandler) DeleteComment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.commentService.DeleteComment(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// ListComments 展开留言时才调用
func (h *ReviewHandler) ListComments(c *gin.Context) {
	offset, limit := pageParams(c)

	comments, total, err := h.commentService.ListComments(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"total":    total,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}
