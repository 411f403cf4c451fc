package db

import (
	"context"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"gorm.io/gorm"
)

const (
	unknownProductName  = "Unknown Product"
	unknownCategoryName = "Unknown"
)

// 目錄唯讀，CRUD 由外部系統負責
type CatalogRepo struct {
	db *DbDao
}

func NewCatalogRepo(db *DbDao) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ActiveProducts 結帳用，只回傳上架中的商品
func (s *CatalogRepo) ActiveProducts(ctx context.Context, ids []uint) (map[uint]model.CatalogProduct, error) {
	return s.lookup(ctx, ids, func(db *gorm.DB) *gorm.DB { return db.Where("active = ?", true) })
}

// ProductsByIDs 收據快照用，不論是否上架
func (s *CatalogRepo) ProductsByIDs(ctx context.Context, ids []uint) (map[uint]model.CatalogProduct, error) {
	return s.lookup(ctx, ids, nil)
}

func (s *CatalogRepo) lookup(ctx context.Context, ids []uint, scope func(*gorm.DB) *gorm.DB) (map[uint]model.CatalogProduct, error) {
	result := make(map[uint]model.CatalogProduct, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []model.Product
	query := s.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids)
	if scope != nil {
		query = query.Scopes(scope)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		categoryName := unknownCategoryName
		if p.Category != nil {
			categoryName = p.Category.Name
		}
		result[p.ID] = model.CatalogProduct{
			ProductID:    p.ID,
			UnitPrice:    p.Price,
			Name:         p.Name,
			CategoryName: categoryName,
		}
	}
	return result, nil
}

// UnknownProduct 商品已被刪除時的快照
func UnknownProduct(productID uint) model.CatalogProduct {
	return model.CatalogProduct{
		ProductID:    productID,
		Name:         unknownProductName,
		CategoryName: unknownCategoryName,
	}
}

type SeedCategory struct {
	Name     string
	Products []model.Product
}

// DefaultCatalogSeed 未指定 seed 檔時使用
func DefaultCatalogSeed() []SeedCategory {
	return []SeedCategory{
		{Name: "Coffee", Products: []model.Product{
			{Name: "Iced Cappuccino", Price: 250, Description: "Rich and creamy"},
			{Name: "Hot Latte", Price: 250, Description: "Smooth and milky"},
			{Name: "Americano", Price: 200, Description: "Strong kick"},
		}},
		{Name: "Tea & Matcha", Products: []model.Product{
			{Name: "Matcha Latte", Price: 300, Description: "Premium Japanese Matcha"},
			{Name: "Lemon Tea", Price: 200, Description: "Refreshing"},
		}},
		{Name: "Bakery", Products: []model.Product{
			{Name: "Croissant", Price: 150, Description: "Buttery"},
			{Name: "Chocolate Muffin", Price: 200, Description: "Decadent"},
		}},
	}
}

// SeedCatalog 開發用示範資料，已有分類時不做任何事
func (s *CatalogRepo) SeedCatalog(ctx context.Context, seeds []SeedCategory) (bool, error) {
	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Category{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for i, seed := range seeds {
			category := model.Category{Name: seed.Name, SortOrder: i + 1}
			if err := tx.Create(&category).Error; err != nil {
				return err
			}
			for _, p := range seed.Products {
				p.CategoryID = category.ID
				p.Active = true
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
