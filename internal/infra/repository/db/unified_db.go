package db

import (
	"context"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"gorm.io/gorm"
)

// ILedgerRepository 訂單與付款的 atomic 操作
type ILedgerRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetActivePayment(ctx context.Context, orderID uint) (*model.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, tranID string) (*model.Payment, error)
	RecordPaymentRequested(ctx context.Context, payment *model.Payment) (*model.Payment, error)
	TransitionToCompleted(ctx context.Context, orderID, paymentID uint, gatewayRef *string) (bool, error)
	MarkCompletedManually(ctx context.Context, orderID uint) (bool, error)
}

// IReceiptRepository 收據相關操作
type IReceiptRepository interface {
	CreateReceipt(ctx context.Context, receipt *model.Receipt) (bool, error)
	GetReceiptByID(ctx context.Context, receiptID string) (*model.Receipt, error)
	ExistsReceipt(ctx context.Context, receiptID string) (bool, error)
	DeleteReceiptsBySource(ctx context.Context, source model.ReceiptSource) (int64, error)
}

// ICatalogRepository 目錄唯讀查詢
type ICatalogRepository interface {
	ActiveProducts(ctx context.Context, ids []uint) (map[uint]model.CatalogProduct, error)
	ProductsByIDs(ctx context.Context, ids []uint) (map[uint]model.CatalogProduct, error)
	SeedCatalog(ctx context.Context, seeds []SeedCategory) (bool, error)
}

// UnifiedDB 統一的資料庫介面
type UnifiedDB interface {
	GetDB() *gorm.DB
	InitMigrate() error
	Close() error
	ILedgerRepository
	IReceiptRepository
	ICatalogRepository
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	dbDao *DbDao
	*LedgerRepo
	*ReceiptRepo
	*CatalogRepo
}

// NewUnifiedDB 創建新的統一資料庫實例
func NewUnifiedDB(conn *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(conn)
	return &UnifiedDBImpl{
		dbDao:       dbDao,
		LedgerRepo:  NewLedgerRepo(dbDao),
		ReceiptRepo: NewReceiptRepo(dbDao),
		CatalogRepo: NewCatalogRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.dbDao.DB
}

func (u *UnifiedDBImpl) Close() error {
	return u.dbDao.Close()
}

var (
	_ UnifiedDB          = (*UnifiedDBImpl)(nil)
	_ ILedgerRepository  = (*LedgerRepo)(nil)
	_ IReceiptRepository = (*ReceiptRepo)(nil)
	_ ICatalogRepository = (*CatalogRepo)(nil)
)
