package service

import "github.com/sandip-dolai/suntechERP/internal/erp/entity"

// Actor 当前操作人，由认证层传入
type Actor struct {
	UserID     string
	Name       string
	Department string
	Roles      []string
}

// IsAdmin 管理员：拥有erp_admin角色或属于Admin部门
func (a Actor) IsAdmin() bool {
	return entity.IsAdminIdentity(a.Department, a.Roles)
}

// CanEditProcess 管理员可改全部流程，其他人只能改本部门的流程
func (a Actor) CanEditProcess(dp *entity.DepartmentProcess) bool {
	if a.IsAdmin() {
		return true
	}
	return dp != nil && a.Department != "" && a.Department == dp.Department
}

// CanModifyIndent 管理员或创建人可修改、删除领料单
func (a Actor) CanModifyIndent(indent *entity.Indent) bool {
	return a.IsAdmin() || (a.UserID != "" && indent.CreatedBy == a.UserID)
}

// CanViewValues 行项金额只对管理员可见
func (a Actor) CanViewValues() bool {
	return a.IsAdmin()
}

// CanCloseIndent 管理员或生产部门可关闭领料单
func (a Actor) CanCloseIndent() bool {
	return a.IsAdmin() || a.Department == entity.DepartmentProduction
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
