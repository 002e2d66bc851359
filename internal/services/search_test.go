package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products map[uuid.UUID]*models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*models.Product)}
}

func (s *fakeProductStore) Create(ctx context.Context, product *models.Product) error {
	s.products[product.ID] = product
	return nil
}

func (s *fakeProductStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products[id], nil
}

func (s *fakeProductStore) GetByNameAndBrand(ctx context.Context, name, brand string) (*models.Product, error) {
	for _, p := range s.products {
		if p.Name == name && p.Brand == brand {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProductStore) Update(ctx context.Context, product *models.Product) error {
	s.products[product.ID] = product
	return nil
}

func (s *fakeProductStore) SearchByNameOrBrand(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	q := strings.ToLower(query)
	var out []*models.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Brand), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) SearchByName(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	q := strings.ToLower(query)
	var out []*models.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Product, error) {
	var out []*models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type searchableReviewStore struct {
	fakeReviewStore
}

func (s *searchableReviewStore) SearchWithProduct(ctx context.Context, query string, limit int) ([]*models.Review, error) {
	q := strings.ToLower(query)
	var out []*models.Review
	for _, r := range s.reviews {
		if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Content), q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func newSearchServiceForTest(products *fakeProductStore, reviews *searchableReviewStore) *SearchService {
	return &SearchService{
		productStore: products,
		reviewStore:  reviews,
		cfg: &config.CatalogConfig{
			SearchLimit: 100,
			PageSize:    10,
		},
		logger: logger.NewLogger(),
	}
}

// 商品名命中和评价文本命中指向同一商品时只出现一次，且记为商品命中
func TestSearchDeduplicatesAcrossSources(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductStore()
	reviews := &searchableReviewStore{fakeReviewStore{reviews: make(map[uuid.UUID]*models.Review)}}

	soap := &models.Product{ID: uuid.New(), Name: "Lavender Soap", Brand: "CleanCo"}
	require.NoError(t, products.Create(ctx, soap))

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: soap.ID,
		Title:     "Great lavender scent",
		Product:   *soap,
	}
	require.NoError(t, reviews.Create(ctx, review))

	svc := newSearchServiceForTest(products, reviews)

	page, err := svc.SearchProducts(ctx, "lavender", SortRelevance, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, soap.ID, page.Items[0].Product.ID)
	assert.Equal(t, matchPrimary, page.Items[0].matchRank)
}

// 仅评价文本命中的商品排在商品命中之后
func TestSearchReviewOnlyMatchComesLast(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductStore()
	reviews := &searchableReviewStore{fakeReviewStore{reviews: make(map[uuid.UUID]*models.Review)}}

	direct := &models.Product{ID: uuid.New(), Name: "Mint Shampoo", Brand: "HairCo"}
	indirect := &models.Product{ID: uuid.New(), Name: "Body Lotion", Brand: "SkinCo"}
	require.NoError(t, products.Create(ctx, direct))
	require.NoError(t, products.Create(ctx, indirect))

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: indirect.ID,
		Content:   "smells like mint all day",
		Product:   *indirect,
	}
	require.NoError(t, reviews.Create(ctx, review))

	svc := newSearchServiceForTest(products, reviews)

	page, err := svc.SearchProducts(ctx, "mint", SortRelevance, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, direct.ID, page.Items[0].Product.ID)
	assert.Equal(t, indirect.ID, page.Items[1].Product.ID)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newSearchServiceForTest(newFakeProductStore(), &searchableReviewStore{fakeReviewStore{reviews: make(map[uuid.UUID]*models.Review)}})

	page, err := svc.SearchProducts(context.Background(), "   ", SortRelevance, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSortResultsRelevance(t *testing.T) {
	a := &SearchResult{Product: &models.Product{Name: "a"}, matchRank: matchTertiary, ReviewCount: 50}
	b := &SearchResult{Product: &models.Product{Name: "b"}, matchRank: matchPrimary, ReviewCount: 2}
	c := &SearchResult{Product: &models.Product{Name: "c"}, matchRank: matchPrimary, ReviewCount: 9}
	d := &SearchResult{Product: &models.Product{Name: "d"}, matchRank: matchPrimary, ReviewCount: 9, AvgRating: 4.5}

	results := []*SearchResult{a, b, c, d}
	sortResults(results, SortRelevance)

	// 商品命中优先，同来源按评价数再按均分
	assert.Equal(t, []*SearchResult{d, c, b, a}, results)
}

func TestSortResultsByName(t *testing.T) {
	a := &SearchResult{Product: &models.Product{Name: "Zinc Cream"}}
	b := &SearchResult{Product: &models.Product{Name: "Aloe Gel"}}

	results := []*SearchResult{a, b}
	sortResults(results, SortTitle)
	assert.Equal(t, []*SearchResult{b, a}, results)
}
