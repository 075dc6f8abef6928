package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
)

var (
	itemCodePattern    = regexp.MustCompile(`^[A-Z0-9-]+$`)
	companyCodePattern = regexp.MustCompile(`^[A-Z-]+$`)
	digitsPattern      = regexp.MustCompile(`^[0-9]+$`)
)

// MasterService 主数据服务：物料、公司、流程状态、部门流程定义
type MasterService struct {
	items     *repository.ItemRepository
	companies *repository.CompanyRepository
	statuses  *repository.ProcessStatusRepository
	processes *repository.DepartmentProcessRepository
	cache     *MasterCache
	logger    *zap.Logger
}

func NewMasterService(repos *repository.Repositories, cache *MasterCache, logger *zap.Logger) *MasterService {
	return &MasterService{
		items:     repos.Item,
		companies: repos.Company,
		statuses:  repos.ProcessStatus,
		processes: repos.DepartmentProcess,
		cache:     cache,
		logger:    logger,
	}
}

// === 物料 ===

// ItemRequest 物料创建/更新请求
type ItemRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	UOM         string `json:"uom"`
}

func (r *ItemRequest) normalize() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)
	r.UOM = strings.TrimSpace(r.UOM)
	if !itemCodePattern.MatchString(r.Code) {
		return validationErrorf("item code may contain only A-Z, 0-9 and '-'")
	}
	if r.Name == "" {
		return validationErrorf("item name is required")
	}
	if r.UOM == "" {
		r.UOM = entity.DefaultUOM
	}
	return nil
}

func (s *MasterService) ListItems(ctx context.Context, page, pageSize int, search string) ([]entity.Item, int64, error) {
	return s.items.FindAll(ctx, page, pageSize, search)
}

func (s *MasterService) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	return s.items.FindByID(ctx, id)
}

func (s *MasterService) CreateItem(ctx context.Context, actor Actor, req *ItemRequest) (*entity.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	item := &entity.Item{
		ID:          newID(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		UOM:         req.UOM,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, mapDuplicate(err, "item code already exists")
	}
	return item, nil
}

func (s *MasterService) UpdateItem(ctx context.Context, actor Actor, id string, req *ItemRequest) (*entity.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Code = req.Code
	item.Name = req.Name
	item.Description = req.Description
	item.UOM = req.UOM
	if err := s.items.Update(ctx, item); err != nil {
		return nil, mapDuplicate(err, "item code already exists")
	}
	return item, nil
}

// === 公司 ===

// CompanyRequest 公司创建/更新请求
type CompanyRequest struct {
	Code          string `json:"code" binding:"required"`
	Code2         string `json:"code2" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

func (r *CompanyRequest) normalize() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Code2 = strings.TrimSpace(r.Code2)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if !companyCodePattern.MatchString(r.Code) {
		return validationErrorf("company code may contain only A-Z and '-'")
	}
	if !digitsPattern.MatchString(r.Code2) {
		return validationErrorf("company code2 must be numeric")
	}
	if r.Name == "" {
		return validationErrorf("company name is required")
	}
	if r.Phone != "" && !digitsPattern.MatchString(r.Phone) {
		return validationErrorf("phone must contain digits only")
	}
	return nil
}

func (s *MasterService) ListCompanies(ctx context.Context, page, pageSize int, search string) ([]entity.Company, int64, error) {
	return s.companies.FindAll(ctx, page, pageSize, search)
}

func (s *MasterService) GetCompany(ctx context.Context, id string) (*entity.Company, error) {
	return s.companies.FindByID(ctx, id)
}

func (s *MasterService) CreateCompany(ctx context.Context, actor Actor, req *CompanyRequest) (*entity.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	company := &entity.Company{
		ID:            newID(),
		Code:          req.Code,
		Code2:         req.Code2,
		Name:          req.Name,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, mapDuplicate(err, "company code already exists")
	}
	return company, nil
}

func (s *MasterService) UpdateCompany(ctx context.Context, actor Actor, id string, req *CompanyRequest) (*entity.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	company.Code = req.Code
	company.Code2 = req.Code2
	company.Name = req.Name
	company.Address = req.Address
	company.ContactPerson = req.ContactPerson
	company.Phone = req.Phone
	company.Email = req.Email
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, mapDuplicate(err, "company code already exists")
	}
	return company, nil
}

// === 流程状态 ===

// ProcessStatusRequest 流程状态请求
type ProcessStatusRequest struct {
	Name     string `json:"name" binding:"required"`
	Color    string `json:"color"`
	IsActive *bool  `json:"is_active"`
}

// ListStatuses 流程状态列表（走缓存）
func (s *MasterService) ListStatuses(ctx context.Context, activeOnly bool) ([]entity.ProcessStatus, error) {
	key := cacheKey(cacheKeyStatuses, activeOnly)
	var items []entity.ProcessStatus
	if s.cache.Get(ctx, key, &items) {
		return items, nil
	}
	items, err := s.statuses.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, items)
	return items, nil
}

// CreateStatus 新增流程状态，名称统一大写
func (s *MasterService) CreateStatus(ctx context.Context, actor Actor, req *ProcessStatusRequest) (*entity.ProcessStatus, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, validationErrorf("status name is required")
	}
	status := &entity.ProcessStatus{
		ID:       newID(),
		Name:     name,
		Color:    req.Color,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, mapDuplicate(err, "status name already exists")
	}
	s.cache.Invalidate(ctx, cacheKeyStatuses)
	return status, nil
}

func (s *MasterService) UpdateStatus(ctx context.Context, actor Actor, id string, req *ProcessStatusRequest) (*entity.ProcessStatus, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, err := s.statuses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, validationErrorf("status name is required")
	}
	status.Name = name
	status.Color = req.Color
	if req.IsActive != nil {
		status.IsActive = *req.IsActive
	}
	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, mapDuplicate(err, "status name already exists")
	}
	s.cache.Invalidate(ctx, cacheKeyStatuses)
	return status, nil
}

// === 部门流程定义 ===

// CreateDepartmentProcessRequest 新增部门流程定义请求，Sequence 为空时追加到末尾
type CreateDepartmentProcessRequest struct {
	Department string `json:"department" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Sequence   *int   `json:"sequence"`
	IsActive   *bool  `json:"is_active"`
}

// UpdateDepartmentProcessRequest 部门不可修改
type UpdateDepartmentProcessRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// ReorderRequest 按给定顺序重排
type ReorderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ListDepartmentProcesses 按sequence排序（走缓存）
func (s *MasterService) ListDepartmentProcesses(ctx context.Context, activeOnly bool) ([]entity.DepartmentProcess, error) {
	key := cacheKey(cacheKeyProcesses, activeOnly)
	var items []entity.DepartmentProcess
	if s.cache.Get(ctx, key, &items) {
		return items, nil
	}
	items, err := s.processes.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, items)
	return items, nil
}

func (s *MasterService) GetDepartmentProcess(ctx context.Context, id string) (*entity.DepartmentProcess, error) {
	return s.processes.FindByID(ctx, id)
}

func (s *MasterService) CreateDepartmentProcess(ctx context.Context, actor Actor, req *CreateDepartmentProcessRequest) (*entity.DepartmentProcess, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !entity.IsValidDepartment(req.Department) {
		return nil, validationErrorf("invalid department %s", req.Department)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationErrorf("process name is required")
	}

	var seq int
	if req.Sequence != nil {
		if *req.Sequence < 1 {
			return nil, validationErrorf("sequence must be a positive integer")
		}
		seq = *req.Sequence
	} else {
		last, err := s.processes.MaxSequence(ctx)
		if err != nil {
			return nil, err
		}
		seq = last + 1
	}

	dp := &entity.DepartmentProcess{
		ID:         newID(),
		Department: req.Department,
		Name:       name,
		Sequence:   seq,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if err := s.processes.Create(ctx, dp); err != nil {
		return nil, mapDuplicate(err, "sequence is already used by another process")
	}
	s.cache.Invalidate(ctx, cacheKeyProcesses)
	s.logger.Info("department process created",
		zap.String("department", dp.Department),
		zap.String("name", dp.Name),
		zap.Int("sequence", dp.Sequence),
	)
	return dp, nil
}

// UpdateDepartmentProcess 修改名称或启用状态；停用代替删除
func (s *MasterService) UpdateDepartmentProcess(ctx context.Context, actor Actor, id string, req *UpdateDepartmentProcessRequest) (*entity.DepartmentProcess, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dp, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationErrorf("process name is required")
		}
		dp.Name = name
	}
	if req.IsActive != nil {
		dp.IsActive = *req.IsActive
	}
	if err := s.processes.Update(ctx, dp); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyProcesses)
	return dp, nil
}

// ReorderDepartmentProcesses 必须列出全部定义，按列表顺序赋值1..n
func (s *MasterService) ReorderDepartmentProcesses(ctx context.Context, actor Actor, req *ReorderRequest) ([]entity.DepartmentProcess, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	all, err := s.processes.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(req.IDs) != len(all) {
		return nil, validationErrorf("reorder must list all %d department processes", len(all))
	}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			return nil, validationErrorf("department process %s is listed more than once", id)
		}
		seen[id] = true
	}

	if err := s.processes.Reorder(ctx, req.IDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("unknown department process in reorder list")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyProcesses)
	return s.processes.FindAll(ctx, false)
}
