package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
)

// MasterHandler 主数据处理器
type MasterHandler struct {
	svc *service.MasterService
}

func NewMasterHandler(svc *service.MasterService) *MasterHandler {
	return &MasterHandler{svc: svc}
}

// ListItems GET /items
func (h *MasterHandler) ListItems(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListItems(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// GetItem GET /items/:id
func (h *MasterHandler) GetItem(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, item)
}

// CreateItem POST /items
func (h *MasterHandler) CreateItem(c *gin.Context) {
	var req service.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, item)
}

// UpdateItem PUT /items/:id
func (h *MasterHandler) UpdateItem(c *gin.Context) {
	var req service.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, item)
}

// ListCompanies GET /companies
func (h *MasterHandler) ListCompanies(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListCompanies(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, NewListResponse(items, total, page, pageSize))
}

// GetCompany GET /companies/:id
func (h *MasterHandler) GetCompany(c *gin.Context) {
	company, err := h.svc.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, company)
}

// CreateCompany POST /companies
func (h *MasterHandler) CreateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	company, err := h.svc.CreateCompany(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, company)
}

// UpdateCompany PUT /companies/:id
func (h *MasterHandler) UpdateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	company, err := h.svc.UpdateCompany(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, company)
}

// ListStatuses GET /process-statuses?active=true
func (h *MasterHandler) ListStatuses(c *gin.Context) {
	items, err := h.svc.ListStatuses(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateStatus POST /process-statuses
func (h *MasterHandler) CreateStatus(c *gin.Context) {
	var req service.ProcessStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	status, err := h.svc.CreateStatus(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, status)
}

// UpdateStatus PUT /process-statuses/:id
func (h *MasterHandler) UpdateStatus(c *gin.Context) {
	var req service.ProcessStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	status, err := h.svc.UpdateStatus(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, status)
}

// ListDepartmentProcesses GET /department-processes?active=true
func (h *MasterHandler) ListDepartmentProcesses(c *gin.Context) {
	items, err := h.svc.ListDepartmentProcesses(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// GetDepartmentProcess GET /department-processes/:id
func (h *MasterHandler) GetDepartmentProcess(c *gin.Context) {
	dp, err := h.svc.GetDepartmentProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, dp)
}

// CreateDepartmentProcess POST /department-processes
func (h *MasterHandler) CreateDepartmentProcess(c *gin.Context) {
	var req service.CreateDepartmentProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	dp, err := h.svc.CreateDepartmentProcess(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, dp)
}

// UpdateDepartmentProcess PUT /department-processes/:id
func (h *MasterHandler) UpdateDepartmentProcess(c *gin.Context) {
	var req service.UpdateDepartmentProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	dp, err := h.svc.UpdateDepartmentProcess(c.Request.Context(), GetActor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, dp)
}

// ReorderDepartmentProcesses POST /department-processes/reorder
func (h *MasterHandler) ReorderDepartmentProcesses(c *gin.Context) {
	var req service.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	items, err := h.svc.ReorderDepartmentProcesses(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
