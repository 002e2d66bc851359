package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"gorm.io/gorm"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Create(ctx context.Context, vote *models.ReviewVote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

// Get 一个 (review, user) 对至多一行
func (r *VoteRepository) Get(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error) {
	var vote models.ReviewVote
	if err := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&vote).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

func (r *VoteRepository) UpdateDirection(ctx context.Context, voteID uuid.UUID, direction string) error {
	if err := r.db.WithContext(ctx).Model(&models.ReviewVote{}).
		Where("id = ?", voteID).
		UpdateColumn("direction", direction).Error; err != nil {
		return fmt.Errorf("failed to update vote direction: %w", err)
	}
	return nil
}

func (r *VoteRepository) Delete(ctx context.Context, reviewID, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&models.ReviewVote{}).Error; err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (r *VoteRepository) CountByReviewID(ctx context.Context, reviewID uuid.UUID, direction string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewVote{}).
		Where("review_id = ? AND direction = ?", reviewID, direction).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
