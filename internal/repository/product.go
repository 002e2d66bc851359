package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return &product, nil
}

// GetByNameAndBrand 精确匹配，避免同一商品的重复行
func (r *ProductRepository) GetByNameAndBrand(ctx context.Context, name, brand string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("name = ? AND brand = ?", name, brand).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by name and brand: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// SearchByNameOrBrand 名称/品牌子串匹配，搜索的 primary 结果集
func (r *ProductRepository) SearchByNameOrBrand(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	var products []*models.Product
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR brand ILIKE ?", "%"+query+"%", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// SearchByName 写评价页的商品联想
func (r *ProductRepository) SearchByName(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	var products []*models.Product
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+query+"%").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Product, error) {
	var products []*models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return products, nil
}
