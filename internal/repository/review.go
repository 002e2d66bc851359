package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		First(&review, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return &review, nil
}

// GetRecent 批量取最近评价，作者和商品一次 join 带出，避免逐行回查
func (r *ReviewRepository) GetRecent(ctx context.Context, limit int) ([]*models.Review, error) {
	var reviews []*models.Review
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) GetByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]*models.Review, error) {
	var reviews []*models.Review
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews by product: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Review, error) {
	var reviews []*models.Review
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews by user: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// SearchWithProduct 标题/内容子串匹配并带出商品，搜索的 tertiary 结果集
func (r *ReviewRepository) SearchWithProduct(ctx context.Context, query string, limit int) ([]*models.Review, error) {
	var reviews []*models.Review
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("title ILIKE ? OR content ILIKE ?", "%"+query+"%", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to search reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) UpdateVoteCount(ctx context.Context, reviewID uuid.UUID, direction string, delta int64) error {
	column := "helpful_count"
	if direction == models.VoteDown {
		column = "not_helpful_count"
	}
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", reviewID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update vote count: %w", err)
	}
	return nil
}

func (r *ReviewRepository) UpdateCommentCount(ctx context.Context, reviewID uuid.UUID, delta int64) error {
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", reviewID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update comment count: %w", err)
	}
	return nil
}

// SetCounters 对账用：用真实行数覆盖冗余计数
func (r *ReviewRepository) SetCounters(ctx context.Context, reviewID uuid.UUID, helpful, notHelpful, comments int64) error {
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", reviewID).
		UpdateColumns(map[string]interface{}{
			"helpful_count":     helpful,
			"not_helpful_count": notHelpful,
			"comment_count":     comments,
		}).Error; err != nil {
		return fmt.Errorf("failed to set review counters: %w", err)
	}
	return nil
}

func (r *ReviewRepository) CountByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func (r *ReviewRepository) AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error) {
	var avg *float64
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("AVG(rating)").
		Scan(&avg).Error; err != nil {
		return 0, fmt.Errorf("failed to average rating: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
