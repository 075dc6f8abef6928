package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	PONumber     string     `json:"po_number" gorm:"size:100;uniqueIndex;not null"`
	PODate       time.Time  `json:"po_date" gorm:"type:date;not null"`
	OANumber     string     `json:"oa_number" gorm:"size:100;uniqueIndex;not null"` // Order Acceptance
	CompanyID    string     `json:"company_id" gorm:"size:32;not null;index"`
	DeliveryDate *time.Time `json:"delivery_date" gorm:"type:date"`
	Status       string     `json:"status" gorm:"size:20;not null;index"` // PENDING/COMPLETED/CANCELLED
	Remarks      string     `json:"remarks" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Items   []POItem `json:"items,omitempty" gorm:"foreignKey:POID"`
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (PurchaseOrder) TableName() string {
	return "erp_purchase_orders"
}

// PO状态
const (
	POStatusPending   = "PENDING"
	POStatusCompleted = "COMPLETED"
	POStatusCancelled = "CANCELLED"
)

// POItem PO行项
type POItem struct {
	ID                  string          `json:"id" gorm:"primaryKey;size:32"`
	POID                string          `json:"po_id" gorm:"size:32;not null;index"`
	MaterialCode        string          `json:"material_code" gorm:"size:50"`
	MaterialDescription string          `json:"material_description" gorm:"type:text;not null"`
	Quantity            decimal.Decimal `json:"quantity" gorm:"type:decimal(15,3);not null"`
	Unit                string          `json:"unit" gorm:"size:20"`
	Value               decimal.Decimal `json:"value" gorm:"type:decimal(15,2);not null"`
	Status              string          `json:"status" gorm:"size:20;not null"` // PENDING/INPROCESS/COMPLETED

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 无权查看金额时置位，Value 同时清零
	ValueHidden bool `json:"value_hidden,omitempty" gorm:"-"`
}

func (POItem) TableName() string {
	return "erp_po_items"
}

// POItem状态
const (
	POItemStatusPending   = "PENDING"
	POItemStatusInProcess = "INPROCESS"
	POItemStatusCompleted = "COMPLETED"
)

// IsValidPOItemStatus 校验行项状态
func IsValidPOItemStatus(s string) bool {
	switch s {
	case POItemStatusPending, POItemStatusInProcess, POItemStatusCompleted:
		return true
	}
	return false
}

// POAttachment PO附件（文件存于对象存储）
type POAttachment struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	POID       string    `json:"po_id" gorm:"size:32;not null;index"`
	FileName   string    `json:"file_name" gorm:"size:256;not null"`
	ObjectKey  string    `json:"object_key" gorm:"size:512;not null"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type" gorm:"size:128"`
	UploadedBy string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (POAttachment) TableName() string {
	return "erp_po_attachments"
}
