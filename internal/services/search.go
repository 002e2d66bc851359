package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/pkg/logger"
)

// 命中来源，决定相关度排序的先后
const (
	matchPrimary  = 0 // 商品名或品牌命中
	matchTertiary = 2 // 仅评价正文/标题命中
)

// SearchResult 搜索页的一行：商品+聚合数据+命中来源
type SearchResult struct {
	Product     *models.Product `json:"product"`
	ReviewCount int64           `json:"review_count"`
	AvgRating   float64         `json:"avg_rating"`
	matchRank   int
}

// SearchService 两路查询合并：商品名/品牌 ILIKE 为主，评价文本命中兜底
type SearchService struct {
	productStore productStore
	reviewStore  reviewStore
	stats        *StatsService
	cfg          *config.CatalogConfig
	logger       *logger.Logger
}

func NewSearchService(
	productRepo *repository.ProductRepository,
	reviewRepo *repository.ReviewRepository,
	stats *StatsService,
	cfg *config.CatalogConfig,
	logger *logger.Logger,
) *SearchService {
	return &SearchService{
		productStore: productRepo,
		reviewStore:  reviewRepo,
		stats:        stats,
		cfg:          cfg,
		logger:       logger,
	}
}

// SearchProducts 合并两路结果，商品命中优先，同商品只留一行
func (s *SearchService) SearchProducts(ctx context.Context, query, sortBy string, page int) (*Page[*SearchResult], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		empty := Paginate([]*SearchResult{}, page, s.cfg.PageSize)
		return &empty, nil
	}

	// 1. 主路：商品名/品牌
	products, err := s.productStore.SearchByNameOrBrand(ctx, query, s.cfg.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	// 2. 兜底：评价标题/正文命中的商品
	reviews, err := s.reviewStore.SearchWithProduct(ctx, query, s.cfg.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search reviews: %w", err)
	}

	// 3. 去重合并，主路命中优先
	seen := make(map[uuid.UUID]*SearchResult)
	var results []*SearchResult
	for _, p := range products {
		r := &SearchResult{Product: p, matchRank: matchPrimary}
		seen[p.ID] = r
		results = append(results, r)
	}
	for _, review := range reviews {
		if _, ok := seen[review.ProductID]; ok {
			continue
		}
		product := review.Product
		r := &SearchResult{Product: &product, matchRank: matchTertiary}
		seen[review.ProductID] = r
		results = append(results, r)
	}

	// 4. 补充聚合数据
	for _, r := range results {
		if s.stats == nil {
			continue
		}
		stats, err := s.stats.ProductStats(ctx, r.Product.ID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", r.Product.ID).Warn("Failed to load product stats")
			continue
		}
		r.ReviewCount = stats.ReviewCount
		r.AvgRating = stats.AvgRating
	}

	sortResults(results, sortBy)

	result := Paginate(results, page, s.cfg.PageSize)
	return &result, nil
}

// sortResults 稳定排序；relevance = 命中来源 > 评价数 > 均分
func sortResults(results []*SearchResult, sortBy string) {
	switch sortBy {
	case SortRecent:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Product.CreatedAt.After(results[j].Product.CreatedAt)
		})
	case SortRatingHigh:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].AvgRating > results[j].AvgRating
		})
	case SortRatingLow:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].AvgRating < results[j].AvgRating
		})
	case SortTitle:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Product.Name < results[j].Product.Name
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].matchRank != results[j].matchRank {
				return results[i].matchRank < results[j].matchRank
			}
			if results[i].ReviewCount != results[j].ReviewCount {
				return results[i].ReviewCount > results[j].ReviewCount
			}
			return results[i].AvgRating > results[j].AvgRating
		})
	}
}

// Suggest 输入联想，只查商品名
func (s *SearchService) Suggest(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}

	products, err := s.productStore.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}
