package model

import (
	"time"
)

// 收據等不可變資料不使用軟刪除，所以這裡只保留時間戳
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
