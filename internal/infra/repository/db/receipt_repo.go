package db

import (
	"context"
	"errors"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 收據建立後不會再更新，只有管理用的 purge 會刪除 SIMULATED 資料
type ReceiptRepo struct {
	db *DbDao
}

func NewReceiptRepo(db *DbDao) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

/*
CreateReceipt 冪等建立收據
receipt_id 的唯一性由資料庫保證，衝突時回傳 false, nil
收據與明細在同一個 transaction
*/
func (s *ReceiptRepo) CreateReceipt(ctx context.Context, receipt *model.Receipt) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := receipt.Items
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "receipt_id"}},
			DoNothing: true,
		}).Omit(clause.Associations).Create(receipt)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		for i := range items {
			items[i].ReceiptID = receipt.ReceiptID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		receipt.Items = items
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *ReceiptRepo) GetReceiptByID(ctx context.Context, receiptID string) (*model.Receipt, error) {
	var receipt model.Receipt
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&receipt, "receipt_id = ?", receiptID).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *ReceiptRepo) ExistsReceipt(ctx context.Context, receiptID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Receipt{}).Where("receipt_id = ?", receiptID).Count(&count).Error
	return count > 0, err
}

// 刪除指定來源的收據與明細，回傳刪除的收據數量
func (s *ReceiptRepo) DeleteReceiptsBySource(ctx context.Context, source model.ReceiptSource) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.Receipt{}).Select("receipt_id").Where("source = ?", source)
		if err := tx.Where("receipt_id IN (?)", sub).Delete(&model.ReceiptItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("source = ?", source).Delete(&model.Receipt{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}
