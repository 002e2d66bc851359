package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/stretchr/testify/assert"
)

func makeReview(rating int, title string, createdAt time.Time) *models.Review {
	return &models.Review{
		ID:        uuid.New(),
		Rating:    rating,
		Title:     title,
		CreatedAt: createdAt,
	}
}

func TestSortReviewsRecent(t *testing.T) {
	now := time.Now()
	oldest := makeReview(3, "a", now.Add(-2*time.Hour))
	middle := makeReview(5, "b", now.Add(-time.Hour))
	newest := makeReview(1, "c", now)

	reviews := []*models.Review{oldest, newest, middle}
	SortReviews(reviews, SortRecent)

	assert.Equal(t, []*models.Review{newest, middle, oldest}, reviews)
}

func TestSortReviewsByRating(t *testing.T) {
	low := makeReview(1, "low", time.Now())
	mid := makeReview(3, "mid", time.Now())
	high := makeReview(5, "high", time.Now())

	reviews := []*models.Review{mid, high, low}
	SortReviews(reviews, SortRatingHigh)
	assert.Equal(t, []*models.Review{high, mid, low}, reviews)

	SortReviews(reviews, SortRatingLow)
	assert.Equal(t, []*models.Review{low, mid, high}, reviews)
}

// 同分项保持取回时的相对顺序
func TestSortReviewsStable(t *testing.T) {
	now := time.Now()
	first := makeReview(4, "first", now.Add(-3*time.Minute))
	second := makeReview(4, "second", now.Add(-2*time.Minute))
	third := makeReview(4, "third", now.Add(-time.Minute))

	reviews := []*models.Review{first, second, third}
	SortReviews(reviews, SortRatingHigh)

	assert.Equal(t, []*models.Review{first, second, third}, reviews)
}

func TestSortReviewsUnknownKeyKeepsOrder(t *testing.T) {
	a := makeReview(2, "a", time.Now())
	b := makeReview(5, "b", time.Now())

	reviews := []*models.Review{a, b}
	SortReviews(reviews, "bogus")

	assert.Equal(t, []*models.Review{a, b}, reviews)
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page := Paginate(items, 1, 10)
	assert.Equal(t, 10, len(page.Items))
	assert.Equal(t, 0, page.Items[0])
	assert.Equal(t, 25, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)

	page = Paginate(items, 3, 10)
	assert.Equal(t, 5, len(page.Items))
	assert.Equal(t, 20, page.Items[0])
}

func TestPaginateOutOfRange(t *testing.T) {
	items := []int{1, 2, 3}

	page := Paginate(items, 5, 10)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateDefaults(t *testing.T) {
	items := make([]int, 15)

	// 非法页码和页大小回退到默认值
	page := Paginate(items, 0, 0)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, DefaultPageSize, len(page.Items))
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate([]int{}, 1, 10)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 0, page.TotalPages)
}
