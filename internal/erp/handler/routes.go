package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/middleware"
)

// RegisterRoutes 注册ERP路由，v1 需已挂载JWTAuth
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	admin := middleware.RequireAdmin()

	v1.GET("/me", h.User.Me)
	v1.GET("/departments", h.User.Departments)

	// 用户目录
	users := v1.Group("/users")
	{
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.POST("", admin, h.User.Create)
		users.PUT("/:id", admin, h.User.Update)
	}

	// 主数据
	items := v1.Group("/items")
	{
		items.GET("", h.Master.ListItems)
		items.GET("/:id", h.Master.GetItem)
		items.POST("", admin, h.Master.CreateItem)
		items.PUT("/:id", admin, h.Master.UpdateItem)
	}
	companies := v1.Group("/companies")
	{
		companies.GET("", h.Master.ListCompanies)
		companies.GET("/:id", h.Master.GetCompany)
		companies.POST("", admin, h.Master.CreateCompany)
		companies.PUT("/:id", admin, h.Master.UpdateCompany)
	}
	statuses := v1.Group("/process-statuses")
	{
		statuses.GET("", h.Master.ListStatuses)
		statuses.POST("", admin, h.Master.CreateStatus)
		statuses.PUT("/:id", admin, h.Master.UpdateStatus)
	}
	dps := v1.Group("/department-processes")
	{
		dps.GET("", h.Master.ListDepartmentProcesses)
		dps.GET("/:id", h.Master.GetDepartmentProcess)
		dps.POST("", admin, h.Master.CreateDepartmentProcess)
		dps.PUT("/:id", admin, h.Master.UpdateDepartmentProcess)
		dps.POST("/reorder", admin, h.Master.ReorderDepartmentProcesses)
	}

	// 采购订单
	pos := v1.Group("/purchase-orders")
	{
		pos.GET("", h.PO.List)
		pos.POST("", admin, h.PO.Create)
		pos.GET("/:id", h.PO.Get)
		pos.PUT("/:id", admin, h.PO.Update)
		pos.DELETE("/:id", admin, h.PO.Delete)
		pos.POST("/:id/cancel", admin, h.PO.Cancel)
		pos.DELETE("/:id/items/:itemId", admin, h.PO.DeleteItem)
		pos.POST("/:id/import", admin, h.PO.ImportItems)
		pos.GET("/:id/processes", h.Process.ListByPO)
		pos.GET("/:id/attachments", h.PO.ListAttachments)
		pos.POST("/:id/attachments", h.PO.UploadAttachment)
	}
	v1.GET("/attachments/:id/download", h.PO.DownloadAttachment)

	// 部门流程
	processes := v1.Group("/po-processes")
	{
		processes.GET("/:id", h.Process.Get)
		processes.PUT("/:id/status", h.Process.UpdateStatus)
		processes.GET("/:id/history", h.Process.History)
	}

	// BOM
	boms := v1.Group("/boms")
	{
		boms.GET("", h.BOM.List)
		boms.POST("", h.BOM.Create)
		boms.GET("/:id", h.BOM.Get)
		boms.PUT("/:id", h.BOM.Update)
		boms.DELETE("/:id", admin, h.BOM.Delete)
	}

	// 领料单
	indents := v1.Group("/indents")
	{
		indents.GET("", h.Indent.List)
		indents.POST("", h.Indent.Create)
		indents.GET("/:id", h.Indent.Get)
		indents.PUT("/:id", h.Indent.Update)
		indents.DELETE("/:id", h.Indent.Delete)
		indents.POST("/:id/close", h.Indent.Close)
	}

	// 通知
	notifications := v1.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
		notifications.POST("/:id/read", h.Notification.MarkRead)
	}
}
