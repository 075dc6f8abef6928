package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me GET /me
func (h *UserHandler) Me(c *gin.Context) {
	actor := GetActor(c)
	Success(c, gin.H{
		"user_id":    actor.UserID,
		"name":       actor.Name,
		"department": actor.Department,
		"roles":      actor.Roles,
		"is_admin":   actor.IsAdmin(),
	})
}

// Departments GET /departments
func (h *UserHandler) Departments(c *gin.Context) {
	Success(c, gin.H{"items": entity.Departments})
}

// List GET /users?department=
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	users, total, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("department"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(users, total, page, pageSize))
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req service.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

// NotificationHandler 站内通知处理器
type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List GET /notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), c.Query("unread") == "true", page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// UnreadCount GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"count": count})
}

// MarkRead POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// MarkAllRead POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"updated": n})
}
