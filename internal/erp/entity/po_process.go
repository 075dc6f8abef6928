package entity

import "time"

// POProcess PO部门流程：每个PO × 创建时有效的部门流程定义一行
type POProcess struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:32"`
	POID                string    `json:"po_id" gorm:"size:32;not null;uniqueIndex:idx_po_process_unique"`
	DepartmentProcessID string    `json:"department_process_id" gorm:"size:32;not null;uniqueIndex:idx_po_process_unique"`
	CurrentStatusID     string    `json:"current_status_id" gorm:"size:32;not null"`
	LastUpdatedBy       string    `json:"last_updated_by" gorm:"size:32"`
	LastUpdatedAt       time.Time `json:"last_updated_at"`
	CreatedAt           time.Time `json:"created_at"`

	// 关联
	DepartmentProcess *DepartmentProcess `json:"department_process,omitempty" gorm:"foreignKey:DepartmentProcessID"`
	CurrentStatus     *ProcessStatus     `json:"current_status,omitempty" gorm:"foreignKey:CurrentStatusID"`

	// 查询时填充
	LatestRemark string `json:"latest_remark,omitempty" gorm:"-"`
}

func (POProcess) TableName() string {
	return "erp_po_processes"
}

// POProcessHistory 流程状态变更记录，只追加
type POProcessHistory struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	POProcessID string    `json:"po_process_id" gorm:"size:32;not null;index"`
	StatusID    string    `json:"status_id" gorm:"size:32;not null"`
	Remark      string    `json:"remark" gorm:"type:text"`
	ChangedBy   string    `json:"changed_by" gorm:"size:32"`
	ChangedAt   time.Time `json:"changed_at" gorm:"not null;index"`
	RowNo       int64     `json:"-" gorm:"autoIncrement;not null;uniqueIndex"` // 数据库分配的插入顺序

	Status *ProcessStatus `json:"status,omitempty" gorm:"foreignKey:StatusID"`
}

func (POProcessHistory) TableName() string {
	return "erp_po_process_histories"
}

// AutoCreatedRemark PO创建时自动生成的首条记录备注
const AutoCreatedRemark = "Auto-created on PO creation"
