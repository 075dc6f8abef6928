package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IndentService 生产领料单服务
type IndentService struct {
	db          *gorm.DB
	indentRepo  *repository.IndentRepository
	poRepo      *repository.PORepository
	processRepo *repository.ProcessRepository
	numbering   *NumberingService
	logger      *zap.Logger
}

func NewIndentService(
	db *gorm.DB,
	indentRepo *repository.IndentRepository,
	poRepo *repository.PORepository,
	processRepo *repository.ProcessRepository,
	numbering *NumberingService,
	logger *zap.Logger,
) *IndentService {
	return &IndentService{
		db:          db,
		indentRepo:  indentRepo,
		poRepo:      poRepo,
		processRepo: processRepo,
		numbering:   numbering,
		logger:      logger,
	}
}

// IndentItemInput 领料行项输入。更新时 ID 为空表示新增，Delete 为 true 表示删除
type IndentItemInput struct {
	ID          string          `json:"id"`
	POItemID    string          `json:"po_item_id"`
	RequiredQty decimal.Decimal `json:"required_qty"`
	UOM         string          `json:"uom"`
	Remarks     string          `json:"remarks"`
	Delete      bool            `json:"delete"`
}

// CreateIndentRequest 创建领料单请求
type CreateIndentRequest struct {
	POID         string            `json:"po_id" binding:"required"`
	POProcessID  string            `json:"po_process_id" binding:"required"`
	IndentDate   string            `json:"indent_date"`
	RequiredDate string            `json:"required_date"`
	Remarks      string            `json:"remarks"`
	Items        []IndentItemInput `json:"items"`
}

// UpdateIndentRequest 更新领料单请求
type UpdateIndentRequest struct {
	POProcessID  *string           `json:"po_process_id"`
	IndentDate   *string           `json:"indent_date"`
	RequiredDate *string           `json:"required_date"`
	Remarks      *string           `json:"remarks"`
	Items        []IndentItemInput `json:"items"`
}

// validateIndentItems 至少保留一行，数量>0
func validateIndentItems(items []IndentItemInput) error {
	live := 0
	for i, it := range items {
		if it.Delete {
			continue
		}
		live++
		if it.ID == "" && it.POItemID == "" {
			return validationErrorf("item %d: po_item_id is required", i+1)
		}
		if !it.RequiredQty.IsPositive() {
			return validationErrorf("item %d: required quantity must be greater than zero", i+1)
		}
	}
	if live == 0 {
		return validationErrorf("at least one item is required")
	}
	return nil
}

// ListIndents 领料单列表
func (s *IndentService) ListIndents(ctx context.Context, page, pageSize int, filter repository.IndentFilter) ([]entity.Indent, int64, error) {
	return s.indentRepo.FindAll(ctx, page, pageSize, filter)
}

// GetIndent 领料单详情
func (s *IndentService) GetIndent(ctx context.Context, id string) (*entity.Indent, error) {
	return s.indentRepo.FindByID(ctx, id)
}

// resolveProcess 校验流程属于该PO、属于生产部门且在领料类别内，返回类别编码
func (s *IndentService) resolveProcess(ctx context.Context, tx *gorm.DB, poID, processID string) (*entity.POProcess, string, error) {
	process, err := s.processRepo.WithTx(tx).FindByID(ctx, processID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", validationErrorf("process %s does not exist", processID)
		}
		return nil, "", err
	}
	if process.POID != poID {
		return nil, "", validationErrorf("process does not belong to this purchase order")
	}
	if process.DepartmentProcess == nil || process.DepartmentProcess.Department != entity.DepartmentProduction {
		return nil, "", validationErrorf("indents can only be raised against Production processes")
	}
	code, ok := s.numbering.CategoryCode(process.DepartmentProcessID)
	if !ok {
		return nil, "", validationErrorf("process %s is not an indent category", process.DepartmentProcess.Name)
	}
	return process, code, nil
}

// CreateIndent 创建领料单，编号按 PO+类别 作用域生成
func (s *IndentService) CreateIndent(ctx context.Context, actor Actor, req *CreateIndentRequest) (*entity.Indent, error) {
	if err := validateIndentItems(req.Items); err != nil {
		return nil, err
	}
	indentDate := time.Now().Truncate(24 * time.Hour)
	if strings.TrimSpace(req.IndentDate) != "" {
		d, err := parseDate(req.IndentDate, "indent_date")
		if err != nil {
			return nil, err
		}
		indentDate = d
	}
	requiredDate, err := parseOptionalDate(req.RequiredDate, "required_date")
	if err != nil {
		return nil, err
	}

	var indent *entity.Indent
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poRepo := s.poRepo.WithTx(tx)
		po, err := poRepo.ShareLockByID(ctx, req.POID)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}

		process, code, err := s.resolveProcess(ctx, tx, po.ID, req.POProcessID)
		if err != nil {
			return err
		}

		var live []IndentItemInput
		for _, it := range req.Items {
			if !it.Delete {
				live = append(live, it)
			}
		}
		poItems, err := lockPOItems(ctx, poRepo, po.ID, indentItemIDs(live))
		if err != nil {
			return err
		}

		scope, err := s.numbering.IndentScope(po, process.DepartmentProcessID)
		if err != nil {
			return err
		}
		number, err := s.numbering.Next(ctx, tx, scope)
		if err != nil {
			return err
		}

		indent = &entity.Indent{
			ID:           newID(),
			IndentNumber: number,
			POID:         po.ID,
			POProcessID:  process.ID,
			CategoryCode: code,
			IndentDate:   indentDate,
			RequiredDate: requiredDate,
			Status:       entity.IndentStatusOpen,
			Remarks:      req.Remarks,
			CreatedBy:    actor.UserID,
		}
		for _, in := range live {
			indent.Items = append(indent.Items, buildIndentItem(indent.ID, in, poItems))
		}

		if err := s.indentRepo.WithTx(tx).Create(ctx, indent); err != nil {
			return mapDuplicate(err, "indent number already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent created",
		zap.String("indent_number", indent.IndentNumber),
		zap.String("po_id", indent.POID),
		zap.Int("items", len(indent.Items)),
	)
	return s.indentRepo.FindByID(ctx, indent.ID)
}

// UpdateIndent 修改领料单，只允许OPEN状态，管理员或创建人可改。
// 每次修改都重新校验流程；流程可换，但类别不可变，编号随之不变。
func (s *IndentService) UpdateIndent(ctx context.Context, actor Actor, id string, req *UpdateIndentRequest) (*entity.Indent, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.indentRepo.WithTx(tx)
		indent, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if indent.Status == entity.IndentStatusClosed {
			return ErrIndentClosed
		}
		if !actor.CanModifyIndent(indent) {
			return forbiddenErrorf("only administrators or the creator can edit this indent")
		}

		processID := indent.POProcessID
		if req.POProcessID != nil {
			processID = *req.POProcessID
		}
		process, code, err := s.resolveProcess(ctx, tx, indent.POID, processID)
		if err != nil {
			return err
		}
		if code != indent.CategoryCode {
			return validationErrorf("process category cannot change from %s to %s", indent.CategoryCode, code)
		}
		indent.POProcessID = process.ID
		if req.IndentDate != nil {
			d, err := parseDate(*req.IndentDate, "indent_date")
			if err != nil {
				return err
			}
			indent.IndentDate = d
		}
		if req.RequiredDate != nil {
			d, err := parseOptionalDate(*req.RequiredDate, "required_date")
			if err != nil {
				return err
			}
			indent.RequiredDate = d
		}
		if req.Remarks != nil {
			indent.Remarks = *req.Remarks
		}

		if len(req.Items) > 0 {
			if err := s.applyItemChanges(ctx, tx, indent, req.Items); err != nil {
				return err
			}
		}
		indent.Items = nil
		return repo.UpdateHeader(ctx, indent)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent updated", zap.String("indent_id", id), zap.String("user_id", actor.UserID))
	return s.indentRepo.FindByID(ctx, id)
}

func (s *IndentService) applyItemChanges(ctx context.Context, tx *gorm.DB, indent *entity.Indent, changes []IndentItemInput) error {
	existing := make(map[string]entity.IndentItem, len(indent.Items))
	for _, it := range indent.Items {
		existing[it.ID] = it
	}

	var deleted []string
	var added []IndentItemInput
	updated := make(map[string]IndentItemInput)
	for i, ch := range changes {
		if ch.ID != "" {
			if _, ok := existing[ch.ID]; !ok {
				return validationErrorf("item %s does not belong to this indent", ch.ID)
			}
			if ch.Delete {
				deleted = append(deleted, ch.ID)
				continue
			}
		} else if ch.Delete {
			continue
		}
		if !ch.RequiredQty.IsPositive() {
			return validationErrorf("item %d: required quantity must be greater than zero", i+1)
		}
		if ch.ID == "" {
			if ch.POItemID == "" {
				return validationErrorf("item %d: po_item_id is required", i+1)
			}
			added = append(added, ch)
		} else {
			updated[ch.ID] = ch
		}
	}
	if len(existing)-len(deleted)+len(added) < 1 {
		return validationErrorf("at least one item is required")
	}

	// 新增和改了引用的行项都要确认属于该PO
	refIDs := indentItemIDs(added)
	for _, ch := range updated {
		if ch.POItemID != "" {
			refIDs = append(refIDs, ch.POItemID)
		}
	}
	poItems, err := lockPOItems(ctx, s.poRepo.WithTx(tx), indent.POID, refIDs)
	if err != nil {
		return err
	}

	repo := s.indentRepo.WithTx(tx)
	if err := repo.DeleteItems(ctx, indent.ID, deleted); err != nil {
		return err
	}
	for itemID, ch := range updated {
		item := existing[itemID]
		if ch.POItemID != "" && ch.POItemID != item.POItemID {
			item.POItemID = ch.POItemID
			if ch.UOM == "" {
				item.UOM = defaultUOM(poItems[ch.POItemID])
			}
		}
		item.RequiredQty = ch.RequiredQty
		if u := strings.TrimSpace(ch.UOM); u != "" {
			item.UOM = u
		}
		item.Remarks = ch.Remarks
		if err := repo.UpdateItem(ctx, &item); err != nil {
			return err
		}
	}
	newItems := make([]entity.IndentItem, 0, len(added))
	for _, in := range added {
		newItems = append(newItems, buildIndentItem(indent.ID, in, poItems))
	}
	return repo.CreateItems(ctx, newItems)
}

// CloseIndent OPEN -> CLOSED，不可逆
func (s *IndentService) CloseIndent(ctx context.Context, actor Actor, id string) (*entity.Indent, error) {
	if !actor.CanCloseIndent() {
		return nil, forbiddenErrorf("only administrators or Production can close indents")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.indentRepo.WithTx(tx)
		indent, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if indent.Status == entity.IndentStatusClosed {
			return ErrIndentClosed
		}
		now := time.Now()
		indent.Status = entity.IndentStatusClosed
		indent.ClosedBy = &actor.UserID
		indent.ClosedAt = &now
		indent.Items = nil
		return repo.UpdateHeader(ctx, indent)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("indent closed", zap.String("indent_id", id), zap.String("user_id", actor.UserID))
	return s.indentRepo.FindByID(ctx, id)
}

// DeleteIndent 删除OPEN状态的领料单，管理员或创建人可删
func (s *IndentService) DeleteIndent(ctx context.Context, actor Actor, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.indentRepo.WithTx(tx)
		indent, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if indent.Status == entity.IndentStatusClosed {
			return ErrIndentClosed
		}
		if !actor.CanModifyIndent(indent) {
			return forbiddenErrorf("only administrators or the creator can delete this indent")
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("indent deleted", zap.String("indent_id", id), zap.String("user_id", actor.UserID))
	return nil
}

func indentItemIDs(items []IndentItemInput) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.POItemID)
	}
	return ids
}

func buildIndentItem(indentID string, in IndentItemInput, poItems map[string]entity.POItem) entity.IndentItem {
	uom := strings.TrimSpace(in.UOM)
	if uom == "" {
		uom = defaultUOM(poItems[in.POItemID])
	}
	return entity.IndentItem{
		ID:          newID(),
		IndentID:    indentID,
		POItemID:    in.POItemID,
		RequiredQty: in.RequiredQty,
		UOM:         uom,
		Remarks:     in.Remarks,
	}
}

// defaultUOM 未填单位时取PO行项单位，再退回NOS
func defaultUOM(item entity.POItem) string {
	if item.Unit != "" {
		return item.Unit
	}
	return entity.DefaultUOM
}
