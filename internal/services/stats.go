package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/pkg/cache"
	"github.com/reviewhub/reviewhub/pkg/logger"
)

const trendingKey = "trending:products"

// ProductStats 商品聚合数据，均分保留一位小数
type ProductStats struct {
	ProductID   string  `json:"product_id"`
	ReviewCount int64   `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// StatsService 商品统计缓存与热门榜（Redis zset）
type StatsService struct {
	reviewStore reviewStore
	redis       *cache.RedisClient
	cfg         *config.CatalogConfig
	logger      *logger.Logger
}

func NewStatsService(reviewRepo *repository.ReviewRepository, redis *cache.RedisClient, cfg *config.CatalogConfig, logger *logger.Logger) *StatsService {
	return &StatsService{
		reviewStore: reviewRepo,
		redis:       redis,
		cfg:         cfg,
		logger:      logger,
	}
}

func statsKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:stats:%s", productID)
}

// roundRating 4.35 -> 4.4
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// ProductStats 先查缓存，未命中时从库聚合并回填
func (s *StatsService) ProductStats(ctx context.Context, productID uuid.UUID) (*ProductStats, error) {
	if s.redis != nil {
		var cached ProductStats
		err := s.redis.GetJSON(ctx, statsKey(productID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !cache.IsNil(err) {
			s.logger.WithError(err).Warn("Failed to read product stats cache")
		}
	}

	return s.RefreshProductStats(ctx, productID)
}

// RefreshProductStats 从库重新聚合并覆盖缓存
func (s *StatsService) RefreshProductStats(ctx context.Context, productID uuid.UUID) (*ProductStats, error) {
	count, err := s.reviewStore.CountByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var avg float64
	if count > 0 {
		avg, err = s.reviewStore.AverageRatingByProductID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to average ratings: %w", err)
		}
	}

	stats := &ProductStats{
		ProductID:   productID.String(),
		ReviewCount: count,
		AvgRating:   roundRating(avg),
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, statsKey(productID), stats, s.cfg.StatsTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache product stats")
		}
	}

	return stats, nil
}

// InvalidateProductStats 评价增删后让缓存失效
func (s *StatsService) InvalidateProductStats(ctx context.Context, productID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Delete(ctx, statsKey(productID)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate product stats cache")
	}
}

// BumpTrending 每写入一条评价给商品加一分，榜外裁剪
func (s *StatsService) BumpTrending(ctx context.Context, productID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.ZIncrBy(ctx, trendingKey, 1, productID.String()); err != nil {
		s.logger.WithError(err).Warn("Failed to bump trending score")
		return
	}
	// 只保留榜内成员
	if err := s.redis.ZRemRangeByRank(ctx, trendingKey, 0, int64(-s.cfg.TrendingSize-1)); err != nil {
		s.logger.WithError(err).Warn("Failed to trim trending set")
	}
}

// TrendingProductIDs 按分数倒序返回榜内商品ID
func (s *StatsService) TrendingProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if s.redis == nil {
		return nil, nil
	}
	if limit <= 0 || limit > s.cfg.TrendingSize {
		limit = s.cfg.TrendingSize
	}

	members, err := s.redis.ZRevRangeWithScores(ctx, trendingKey, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read trending set: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		raw, ok := member.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			// 脏数据直接剔除
			s.redis.ZRem(ctx, trendingKey, raw)
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
