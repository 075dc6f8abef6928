package entity

import "time"

// 部门
const (
	DepartmentMarketing  = "Marketing"
	DepartmentDesign     = "Design"
	DepartmentProduction = "Production"
	DepartmentQuality    = "Quality"
	DepartmentAdmin      = "Admin"
)

// Departments 全部部门（固定枚举）
var Departments = []string{
	DepartmentMarketing,
	DepartmentDesign,
	DepartmentProduction,
	DepartmentQuality,
	DepartmentAdmin,
}

// IsValidDepartment 判断部门是否在枚举内
func IsValidDepartment(department string) bool {
	for _, d := range Departments {
		if d == department {
			return true
		}
	}
	return false
}

// Item 物料主数据
type Item struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:30;uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UOM         string    `json:"uom" gorm:"size:20;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "erp_items"
}

// DefaultUOM 物料默认计量单位
const DefaultUOM = "NOS"

// Company 客户/供应商主数据
type Company struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Code          string    `json:"code" gorm:"size:30;uniqueIndex;not null"`
	Code2         string    `json:"code2" gorm:"size:30;uniqueIndex;not null"` // 数字编码
	Name          string    `json:"name" gorm:"size:200;not null"`
	Address       string    `json:"address" gorm:"type:text"`
	ContactPerson string    `json:"contact_person" gorm:"size:150"`
	Phone         string    `json:"phone" gorm:"size:20"`
	Email         string    `json:"email" gorm:"size:254"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Company) TableName() string {
	return "erp_companies"
}

// ProcessStatus 部门流程状态字典
type ProcessStatus struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Color     string    `json:"color" gorm:"size:20"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProcessStatus) TableName() string {
	return "erp_process_statuses"
}

// DepartmentProcess 部门流程定义，Sequence 全局唯一，决定清单顺序。
// Department 创建后不可修改；定义只停用不删除。
type DepartmentProcess struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Department string    `json:"department" gorm:"size:50;not null;index"`
	Name       string    `json:"name" gorm:"size:200;not null"`
	Sequence   int       `json:"sequence" gorm:"uniqueIndex;not null"`
	IsActive   bool      `json:"is_active" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DepartmentProcess) TableName() string {
	return "erp_department_processes"
}
