package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
)

// 服务层只依赖窄接口，仓库的具体实现由 main 注入

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFollowersCount(ctx context.Context, userID uuid.UUID, delta int64) error
	UpdateFollowingCount(ctx context.Context, userID uuid.UUID, delta int64) error
}

type followStore interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	Get(ctx context.Context, followerID, followingID uuid.UUID) (*models.Follow, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}

type productStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByNameAndBrand(ctx context.Context, name, brand string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	SearchByNameOrBrand(ctx context.Context, query string, limit int) ([]*models.Product, error)
	SearchByName(ctx context.Context, query string, limit int) ([]*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Product, error)
}

type reviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Review, error)
	GetByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]*models.Review, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SearchWithProduct(ctx context.Context, query string, limit int) ([]*models.Review, error)
	UpdateVoteCount(ctx context.Context, reviewID uuid.UUID, direction string, delta int64) error
	UpdateCommentCount(ctx context.Context, reviewID uuid.UUID, delta int64) error
	CountByProductID(ctx context.Context, productID uuid.UUID) (int64, error)
	AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error)
}

type voteStore interface {
	Create(ctx context.Context, vote *models.ReviewVote) error
	Get(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error)
	UpdateDirection(ctx context.Context, voteID uuid.UUID, direction string) error
	Delete(ctx context.Context, reviewID, userID uuid.UUID) error
}

type commentStore interface {
	Create(ctx context.Context, comment *models.ReviewComment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReviewComment, error)
	GetByReviewID(ctx context.Context, reviewID uuid.UUID, offset, limit int) ([]*models.ReviewComment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByReviewID(ctx context.Context, reviewID uuid.UUID) (int64, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type kvCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
