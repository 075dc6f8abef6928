package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indent 生产领料单，关联一个PO及其生产部门流程
type Indent struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	IndentNumber string     `json:"indent_number" gorm:"size:100;uniqueIndex;not null"`
	RowNo        int64      `json:"-" gorm:"autoIncrement;not null;uniqueIndex"` // 数据库分配的插入顺序
	POID         string     `json:"po_id" gorm:"size:32;not null;index:idx_indent_scope"`
	POProcessID  string     `json:"po_process_id" gorm:"size:32;not null;index"`
	CategoryCode string     `json:"category_code" gorm:"size:10;not null;index:idx_indent_scope"` // RAW/ACC/PAC
	IndentDate   time.Time  `json:"indent_date" gorm:"type:date;not null"`
	RequiredDate *time.Time `json:"required_date" gorm:"type:date"`
	Status       string     `json:"status" gorm:"size:20;not null;index"` // OPEN/CLOSED
	Remarks      string     `json:"remarks" gorm:"type:text"`

	CreatedBy string     `json:"created_by" gorm:"size:32"`
	ClosedBy  *string    `json:"closed_by" gorm:"size:32"`
	ClosedAt  *time.Time `json:"closed_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Items     []IndentItem `json:"items,omitempty" gorm:"foreignKey:IndentID"`
	POProcess *POProcess   `json:"po_process,omitempty" gorm:"foreignKey:POProcessID"`
}

func (Indent) TableName() string {
	return "erp_indents"
}

// Indent状态，CLOSED为终态
const (
	IndentStatusOpen   = "OPEN"
	IndentStatusClosed = "CLOSED"
)

// IndentItem 领料行项
type IndentItem struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	IndentID    string          `json:"indent_id" gorm:"size:32;not null;index"`
	POItemID    string          `json:"po_item_id" gorm:"size:32;not null;index"`
	RequiredQty decimal.Decimal `json:"required_qty" gorm:"type:decimal(15,3);not null"`
	UOM         string          `json:"uom" gorm:"size:20;not null"`
	Remarks     string          `json:"remarks" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	POItem *POItem `json:"po_item,omitempty" gorm:"foreignKey:POItemID"`
}

func (IndentItem) TableName() string {
	return "erp_indent_items"
}
