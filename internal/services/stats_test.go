package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.4, roundRating(4.35))
	assert.Equal(t, 4.3, roundRating(4.333333))
	assert.Equal(t, 5.0, roundRating(5))
	assert.Equal(t, 0.0, roundRating(0))
}

func newStatsServiceForTest(reviews reviewStore) *StatsService {
	return &StatsService{
		reviewStore: reviews,
		cfg:         &config.CatalogConfig{TrendingSize: 50},
		logger:      logger.NewLogger(),
	}
}

func TestProductStatsAggregation(t *testing.T) {
	ctx := context.Background()
	reviews := newFakeReviewStore()
	productID := uuid.New()

	for _, rating := range []int{5, 4, 4} {
		require.NoError(t, reviews.Create(ctx, &models.Review{
			ID:        uuid.New(),
			ProductID: productID,
			Rating:    rating,
		}))
	}

	svc := newStatsServiceForTest(reviews)

	stats, err := svc.ProductStats(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ReviewCount)
	assert.Equal(t, 4.3, stats.AvgRating)
}

func TestProductStatsNoReviews(t *testing.T) {
	svc := newStatsServiceForTest(newFakeReviewStore())

	stats, err := svc.ProductStats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ReviewCount)
	assert.Equal(t, 0.0, stats.AvgRating)
}
