package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
)

// BOMHandler BOM处理器
type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// List GET /boms?po_id=
func (h *BOMHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListBOMs(c.Request.Context(), page, pageSize, c.Query("po_id"), c.Query("search"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// Get GET /boms/:id
func (h *BOMHandler) Get(c *gin.Context) {
	bom, err := h.svc.GetBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// Create POST /boms
func (h *BOMHandler) Create(c *gin.Context) {
	var req service.CreateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	bom, err := h.svc.CreateBOM(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, bom)
}

// Update PUT /boms/:id
func (h *BOMHandler) Update(c *gin.Context) {
	var req service.UpdateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	bom, err := h.svc.UpdateBOM(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// Delete DELETE /boms/:id
func (h *BOMHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBOM(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// IndentHandler 领料单处理器
type IndentHandler struct {
	svc *service.IndentService
}

func NewIndentHandler(svc *service.IndentService) *IndentHandler {
	return &IndentHandler{svc: svc}
}

// List GET /indents?po_id=&status=&category=
func (h *IndentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filter := repository.IndentFilter{
		POID:         c.Query("po_id"),
		Status:       c.Query("status"),
		CategoryCode: c.Query("category"),
		Search:       c.Query("search"),
	}
	items, total, err := h.svc.ListIndents(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// Get GET /indents/:id
func (h *IndentHandler) Get(c *gin.Context) {
	indent, err := h.svc.GetIndent(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, indent)
}

// Create POST /indents
func (h *IndentHandler) Create(c *gin.Context) {
	var req service.CreateIndentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	indent, err := h.svc.CreateIndent(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, indent)
}

// Update PUT /indents/:id
func (h *IndentHandler) Update(c *gin.Context) {
	var req service.UpdateIndentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	indent, err := h.svc.UpdateIndent(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, indent)
}

// Close POST /indents/:id/close
func (h *IndentHandler) Close(c *gin.Context) {
	indent, err := h.svc.CloseIndent(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, indent)
}

// Delete DELETE /indents/:id
func (h *IndentHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteIndent(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
