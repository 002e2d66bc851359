package services

import (
	"sort"

	"github.com/reviewhub/reviewhub/internal/models"
)

// 排序键，与前端下拉框的取值一致
const (
	SortRecent     = "recent"
	SortRatingHigh = "rating-high"
	SortRatingLow  = "rating-low"
	SortTitle      = "title"
	SortRelevance  = "relevance"
)

const DefaultPageSize = 10

// SortReviews 内存中稳定排序，同分保持取回时的相对顺序；未知键不动
func SortReviews(reviews []*models.Review, sortBy string) {
	switch sortBy {
	case SortRecent:
		sort.SliceStable(reviews, func(i, j int) bool {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		})
	case SortRatingHigh:
		sort.SliceStable(reviews, func(i, j int) bool {
			return reviews[i].Rating > reviews[j].Rating
		})
	case SortRatingLow:
		sort.SliceStable(reviews, func(i, j int) bool {
			return reviews[i].Rating < reviews[j].Rating
		})
	case SortTitle:
		sort.SliceStable(reviews, func(i, j int) bool {
			return reviews[i].Title < reviews[j].Title
		})
	}
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate 固定页大小切片，页码从 1 开始，越界返回空页
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	totalItems := len(items)
	totalPages := totalItems / pageSize
	if totalItems%pageSize > 0 {
		totalPages++
	}

	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
