package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RoleAdmin 管理员角色编码
const RoleAdmin = "erp_admin"

// IsAdminIdentity 拥有erp_admin角色或属于Admin部门即为管理员。
// 认证中间件和业务层共用这一条判定。
func IsAdminIdentity(department string, roles []string) bool {
	if department == DepartmentAdmin {
		return true
	}
	for _, r := range roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// User 用户目录（认证在外部完成，这里只用于归属和通知）
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Username   string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"size:100"`
	Email      string    `json:"email" gorm:"size:254"`
	Department string    `json:"department" gorm:"size:50"`
	IsAdmin    bool      `json:"is_admin" gorm:"not null"`
	IsActive   bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "erp_users"
}

// Notification 站内通知
type Notification struct {
	ID        string         `json:"id" gorm:"primaryKey;size:32"`
	UserID    string         `json:"user_id" gorm:"size:32;not null;index"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Message   string         `json:"message" gorm:"type:text"`
	URL       string         `json:"url" gorm:"size:255"`
	IsRead    bool           `json:"is_read" gorm:"not null;index"`
	Metadata  datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Notification) TableName() string {
	return "erp_notifications"
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Item{},
		&Company{},
		&ProcessStatus{},
		&DepartmentProcess{},
		&PurchaseOrder{},
		&POItem{},
		&POAttachment{},
		&POProcess{},
		&POProcessHistory{},
		&BOM{},
		&BOMItem{},
		&Indent{},
		&IndentItem{},
		&Notification{},
	}
}
