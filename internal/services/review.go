package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
	"github.com/sirupsen/logrus"
)

// 正文长度上限
const MaxContentLength = 1000

// ReviewService 评价的写入、浏览与删除
type ReviewService struct {
	reviewStore  reviewStore
	productStore productStore
	media        *MediaService
	stats        *StatsService
	producer     eventPublisher
	cfg          *config.CatalogConfig
	logger       *logger.Logger
}

func NewReviewService(
	reviewRepo *repository.ReviewRepository,
	productRepo *repository.ProductRepository,
	media *MediaService,
	stats *StatsService,
	producer *queue.KafkaProducer,
	cfg *config.CatalogConfig,
	logger *logger.Logger,
) *ReviewService {
	svc := &ReviewService{
		reviewStore:  reviewRepo,
		productStore: productRepo,
		media:        media,
		stats:        stats,
		cfg:          cfg,
		logger:       logger,
	}
	if producer != nil {
		svc.producer = producer
	}
	return svc
}

type CreateReviewRequest struct {
	ProductID    string `form:"product_id"`
	ProductName  string `form:"product_name"`
	ProductBrand string `form:"product_brand"`
	Rating       int    `form:"rating" binding:"required"`
	Title        string `form:"title" binding:"required"`
	Content      string `form:"content" binding:"required"`
}

func validateReview(req *CreateReviewRequest) error {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if len([]rune(req.Content)) > MaxContentLength {
		return fmt.Errorf("content cannot exceed %d characters", MaxContentLength)
	}
	if req.ProductID == "" {
		if strings.TrimSpace(req.ProductName) == "" {
			return fmt.Errorf("product name cannot be empty")
		}
		if strings.TrimSpace(req.ProductBrand) == "" {
			return fmt.Errorf("product brand cannot be empty")
		}
	}
	return nil
}

// resolveProduct 选中已有商品 > 名称+品牌精确匹配 > 新建
func (s *ReviewService) resolveProduct(ctx context.Context, req *CreateReviewRequest, firstImageURL string) (*models.Product, error) {
	if req.ProductID != "" {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product ID: %w", err)
		}
		product, err := s.productStore.GetByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("product not found")
		}
		return product, nil
	}

	name := strings.TrimSpace(req.ProductName)
	brand := strings.TrimSpace(req.ProductBrand)

	existing, err := s.productStore.GetByNameAndBrand(ctx, name, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	// 新建商品用第一张评价图当封面
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Brand:    brand,
		Category: "General",
		ImageURL: firstImageURL,
	}
	if err := s.productStore.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       name,
		"brand":      brand,
	}).Info("Product created from review")

	return product, nil
}

// CreateReview 先传图再落库，评价ID提前生成以便拼对象键；落库失败时清理已传对象
func (s *ReviewService) CreateReview(ctx context.Context, userIDStr string, req *CreateReviewRequest, files []*UploadFile) (*models.Review, error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}

	reviewID := uuid.New()

	// 1. 上传图片
	var imageURLs []string
	if len(files) > 0 {
		imageURLs, err = s.media.UploadReviewImages(ctx, reviewID, files)
		if err != nil {
			return nil, fmt.Errorf("failed to upload review images: %w", err)
		}
	}

	firstImage := ""
	if len(imageURLs) > 0 {
		firstImage = imageURLs[0]
	}

	// 2. 定位或新建商品
	product, err := s.resolveProduct(ctx, req, firstImage)
	if err != nil {
		s.media.DeleteReviewImages(ctx, imageURLs)
		return nil, err
	}

	// 老商品没封面时用本次第一张图补上
	if product.ImageURL == "" && firstImage != "" {
		product.ImageURL = firstImage
		if err := s.productStore.Update(ctx, product); err != nil {
			s.logger.WithError(err).WithField("product_id", product.ID).Warn("Failed to backfill product cover")
		}
	}

	// 3. 单次插入，不回写 URL
	review := &models.Review{
		ID:        reviewID,
		UserID:    userID,
		ProductID: product.ID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		ImageURLs: imageURLs,
	}
	if err := s.reviewStore.Create(ctx, review); err != nil {
		s.media.DeleteReviewImages(ctx, imageURLs)
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	review.Product = *product

	if s.stats != nil {
		s.stats.InvalidateProductStats(ctx, product.ID)
		s.stats.BumpTrending(ctx, product.ID)
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventReviewCreated,
			Timestamp: time.Now(),
			Data: queue.ReviewEventData{
				ReviewID:  review.ID.String(),
				UserID:    userID.String(),
				ProductID: product.ID.String(),
				Rating:    review.Rating,
				CreatedAt: review.CreatedAt.Format(time.RFC3339),
			},
		}
		if err := s.producer.Publish(ctx, userID.String(), event); err != nil {
			s.logger.WithError(err).Error("Failed to publish review event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"user_id":    userID,
		"product_id": product.ID,
		"images":     len(imageURLs),
	}).Info("Review created")

	return review, nil
}

// DeleteReview 仅作者可删，删除后清理图片并刷新统计
func (s *ReviewService) DeleteReview(ctx context.Context, reviewIDStr, userIDStr string) error {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	review, err := s.reviewStore.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return fmt.Errorf("review not found")
	}
	if review.UserID.String() != userIDStr {
		return fmt.Errorf("only the author can delete a review")
	}

	if err := s.reviewStore.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.media.DeleteReviewImages(ctx, review.ImageURLs)

	if s.stats != nil {
		s.stats.InvalidateProductStats(ctx, review.ProductID)
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventReviewDeleted,
			Timestamp: time.Now(),
			Data: queue.ReviewEventData{
				ReviewID:  review.ID.String(),
				UserID:    review.UserID.String(),
				ProductID: review.ProductID.String(),
				Rating:    review.Rating,
			},
		}
		if err := s.producer.Publish(ctx, review.UserID.String(), event); err != nil {
			s.logger.WithError(err).Error("Failed to publish review event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"review_id": reviewID,
		"user_id":   userIDStr,
	}).Info("Review deleted")

	return nil
}

func (s *ReviewService) GetReview(ctx context.Context, reviewIDStr string) (*models.Review, error) {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}

	review, err := s.reviewStore.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("review not found")
	}
	return review, nil
}

// Explore 最新评价流，内存排序+固定页大小分页
func (s *ReviewService) Explore(ctx context.Context, sortBy string, page int) (*Page[*models.Review], error) {
	reviews, err := s.reviewStore.GetRecent(ctx, s.cfg.ExploreLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent reviews: %w", err)
	}

	SortReviews(reviews, sortBy)
	result := Paginate(reviews, page, s.cfg.PageSize)
	return &result, nil
}

// ProductReviews 商品页评价列表，附带聚合统计
func (s *ReviewService) ProductReviews(ctx context.Context, productIDStr, sortBy string, page int) (*Page[*models.Review], *ProductStats, error) {
	productID, err := uuid.Parse(productIDStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid product ID: %w", err)
	}

	reviews, err := s.reviewStore.GetByProductID(ctx, productID, s.cfg.ExploreLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get product reviews: %w", err)
	}

	SortReviews(reviews, sortBy)
	result := Paginate(reviews, page, s.cfg.PageSize)

	var stats *ProductStats
	if s.stats != nil {
		stats, err = s.stats.ProductStats(ctx, productID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", productID).Warn("Failed to load product stats")
			stats = nil
		}
	}

	return &result, stats, nil
}

// UserReviews 个人主页的评价列表
func (s *ReviewService) UserReviews(ctx context.Context, userIDStr, sortBy string, page int) (*Page[*models.Review], error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	reviews, err := s.reviewStore.GetByUserID(ctx, userID, s.cfg.ExploreLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user reviews: %w", err)
	}

	SortReviews(reviews, sortBy)
	result := Paginate(reviews, page, s.cfg.PageSize)
	return &result, nil
}

// GetProduct 商品详情+统计
func (s *ReviewService) GetProduct(ctx context.Context, productIDStr string) (*models.Product, *ProductStats, error) {
	productID, err := uuid.Parse(productIDStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid product ID: %w", err)
	}

	product, err := s.productStore.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, nil, fmt.Errorf("product not found")
	}

	var stats *ProductStats
	if s.stats != nil {
		stats, err = s.stats.ProductStats(ctx, productID)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load product stats")
			stats = nil
		}
	}

	return product, stats, nil
}

// TrendingProducts 热门榜商品，按榜内得分倒序
func (s *ReviewService) TrendingProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	if s.stats == nil {
		return nil, nil
	}

	ids, err := s.stats.TrendingProductIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := s.productStore.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending products: %w", err)
	}

	// 保持榜单顺序
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}
