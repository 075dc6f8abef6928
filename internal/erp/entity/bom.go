package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOM 物料清单，每个PO一份
type BOM struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	BOMNo     string    `json:"bom_no" gorm:"size:100;uniqueIndex;not null"`
	RowNo     int64     `json:"-" gorm:"autoIncrement;not null;uniqueIndex"` // 数据库分配的插入顺序
	POID      string    `json:"po_id" gorm:"size:32;not null;index"`
	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items         []BOMItem      `json:"items,omitempty" gorm:"foreignKey:BOMID"`
	PurchaseOrder *PurchaseOrder `json:"purchase_order,omitempty" gorm:"foreignKey:POID"`
}

func (BOM) TableName() string {
	return "erp_boms"
}

// BOMItem BOM行项，引用PO行项
type BOMItem struct {
	ID        string          `json:"id" gorm:"primaryKey;size:32"`
	BOMID     string          `json:"bom_id" gorm:"size:32;not null;uniqueIndex:idx_bom_item_unique"`
	POItemID  string          `json:"po_item_id" gorm:"size:32;not null;uniqueIndex:idx_bom_item_unique;index"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(15,3);not null"`
	Unit      string          `json:"unit" gorm:"size:20"`
	Remarks   string          `json:"remarks" gorm:"type:text"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	POItem *POItem `json:"po_item,omitempty" gorm:"foreignKey:POItemID"`
}

func (BOMItem) TableName() string {
	return "erp_bom_items"
}
