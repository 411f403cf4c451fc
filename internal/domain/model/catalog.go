package model

// 商品目錄由外部維護，核心只在結帳與收據快照時讀取
type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	SortOrder int    `gorm:"not null" json:"sort_order"`
	BaseModel
}

type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Price       int64     `gorm:"not null" json:"price"` // 單位: 分
	Active      bool      `gorm:"not null" json:"active"`
	Description string    `gorm:"type:text" json:"description"`
	BaseModel
}

// CatalogProduct 結帳時向目錄查詢的唯讀快照
type CatalogProduct struct {
	ProductID    uint
	UnitPrice    int64
	Name         string
	CategoryName string
}
