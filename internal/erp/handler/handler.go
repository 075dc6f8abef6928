package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
)

// Handlers ERP HTTP处理器集合
type Handlers struct {
	User         *UserHandler
	Master       *MasterHandler
	PO           *POHandler
	Process      *ProcessHandler
	BOM          *BOMHandler
	Indent       *IndentHandler
	Notification *NotificationHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		User:         NewUserHandler(services.User),
		Master:       NewMasterHandler(services.Master),
		PO:           NewPOHandler(services.PO, services.Attachment),
		Process:      NewProcessHandler(services.Checklist),
		BOM:          NewBOMHandler(services.BOM),
		Indent:       NewIndentHandler(services.Indent),
		Notification: NewNotificationHandler(services.Notification),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// 业务错误码
const (
	CodeBadRequest    = 40000
	CodeForbidden     = 40300
	CodeNotFound      = 40400
	CodeConflict      = 40900
	CodeInternal      = 50000
	CodeConfiguration = 50010
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error 错误响应，HTTP状态码取业务码前三位
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// HandleError 按错误分类输出响应
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, CodeConflict, err.Error())
	case errors.Is(err, service.ErrConfiguration):
		Error(c, CodeConfiguration, err.Error())
	default:
		InternalError(c, "internal server error")
	}
}

// GetActor 从认证上下文构造当前操作人
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{
		UserID:     c.GetString("user_id"),
		Name:       c.GetString("user_name"),
		Department: c.GetString("department"),
	}
	if roles, ok := c.Get("roles"); ok {
		if r, ok := roles.([]string); ok {
			actor.Roles = r
		}
	}
	return actor
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

// NewListResponse 组装分页列表
func NewListResponse(items interface{}, total int64, page, pageSize int) *ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
