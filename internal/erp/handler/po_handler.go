package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/xuri/excelize/v2"
)

// POHandler 采购订单处理器
type POHandler struct {
	svc         *service.POService
	attachments *service.AttachmentService
}

func NewPOHandler(svc *service.POService, attachments *service.AttachmentService) *POHandler {
	return &POHandler{svc: svc, attachments: attachments}
}

// poFilterFromQuery 解析列表过滤参数，日期格式 YYYY-MM-DD
func poFilterFromQuery(c *gin.Context) (repository.POFilter, error) {
	filter := repository.POFilter{
		Status:    c.Query("status"),
		CompanyID: c.Query("company_id"),
		Search:    c.Query("search"),
	}
	if v := c.Query("date_from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from")
		}
		filter.DateFrom = &d
	}
	if v := c.Query("date_to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to")
		}
		filter.DateTo = &d
	}
	return filter, nil
}

// List GET /purchase-orders
func (h *POHandler) List(c *gin.Context) {
	filter, err := poFilterFromQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListPOs(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// Get GET /purchase-orders/:id
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.GetPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	service.HideValues(GetActor(c), po)
	Success(c, po)
}

// Create POST /purchase-orders
func (h *POHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	po, err := h.svc.CreatePO(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, po)
}

// Update PUT /purchase-orders/:id
func (h *POHandler) Update(c *gin.Context) {
	var req service.UpdatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	po, err := h.svc.UpdatePO(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, po)
}

// Cancel POST /purchase-orders/:id/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	po, err := h.svc.CancelPO(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, po)
}

// Delete DELETE /purchase-orders/:id
func (h *POHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePO(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// DeleteItem DELETE /purchase-orders/:id/items/:itemId
func (h *POHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Request.Context(), GetActor(c), c.Param("id"), c.Param("itemId")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// ImportItems POST /purchase-orders/:id/import
func (h *POHandler) ImportItems(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "please upload an Excel file")
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(c, "cannot parse Excel file: "+err.Error())
		return
	}
	defer f.Close()

	result, err := h.svc.ImportItems(c.Request.Context(), GetActor(c), c.Param("id"), f)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// ListAttachments GET /purchase-orders/:id/attachments
func (h *POHandler) ListAttachments(c *gin.Context) {
	items, err := h.attachments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// UploadAttachment POST /purchase-orders/:id/attachments
func (h *POHandler) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "please upload a file")
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(
		c.Request.Context(),
		GetActor(c),
		c.Param("id"),
		file,
		header.Filename,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, att)
}

// DownloadAttachment GET /attachments/:id/download
func (h *POHandler) DownloadAttachment(c *gin.Context) {
	reader, att, err := h.attachments.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer reader.Close()

	contentType := att.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	c.Header("Content-Type", contentType)
	c.Status(200)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}

// ProcessHandler PO部门流程处理器
type ProcessHandler struct {
	svc *service.ChecklistService
}

func NewProcessHandler(svc *service.ChecklistService) *ProcessHandler {
	return &ProcessHandler{svc: svc}
}

// ListByPO GET /purchase-orders/:id/processes
func (h *ProcessHandler) ListByPO(c *gin.Context) {
	items, err := h.svc.ListByPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /po-processes/:id
func (h *ProcessHandler) Get(c *gin.Context) {
	p, err := h.svc.GetProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, p)
}

// UpdateStatus PUT /po-processes/:id/status
func (h *ProcessHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdateStatus(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, p)
}

// History GET /po-processes/:id/history
func (h *ProcessHandler) History(c *gin.Context) {
	items, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
