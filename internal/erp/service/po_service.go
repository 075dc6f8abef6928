package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dateLayout 日期字段格式
const dateLayout = "2006-01-02"

// PONotifier PO创建后的通知出口
type PONotifier interface {
	NotifyPOCreated(ctx context.Context, po *entity.PurchaseOrder)
}

// ObjectRemover PO删除后清理附件对象
type ObjectRemover interface {
	RemoveObjects(ctx context.Context, keys []string)
}

// POService 采购订单服务
type POService struct {
	db          *gorm.DB
	poRepo      *repository.PORepository
	companyRepo *repository.CompanyRepository
	checklist   *ChecklistService
	notifier    PONotifier
	objects     ObjectRemover
	logger      *zap.Logger
}

func NewPOService(
	db *gorm.DB,
	poRepo *repository.PORepository,
	companyRepo *repository.CompanyRepository,
	checklist *ChecklistService,
	logger *zap.Logger,
) *POService {
	return &POService{
		db:          db,
		poRepo:      poRepo,
		companyRepo: companyRepo,
		checklist:   checklist,
		logger:      logger,
	}
}

// SetNotifier 注入通知出口
func (s *POService) SetNotifier(n PONotifier) {
	s.notifier = n
}

// SetObjectRemover 注入附件对象清理
func (s *POService) SetObjectRemover(r ObjectRemover) {
	s.objects = r
}

// POItemInput PO行项输入
type POItemInput struct {
	MaterialCode        string          `json:"material_code"`
	MaterialDescription string          `json:"material_description"`
	Quantity            decimal.Decimal `json:"quantity"`
	Unit                string          `json:"unit"`
	Value               decimal.Decimal `json:"value"`
	Status              string          `json:"status"`
}

func (in *POItemInput) normalize(line int) error {
	in.MaterialCode = strings.TrimSpace(in.MaterialCode)
	in.MaterialDescription = strings.TrimSpace(in.MaterialDescription)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.MaterialDescription == "" {
		return validationErrorf("item %d: material description is required", line)
	}
	if !in.Quantity.IsPositive() {
		return validationErrorf("item %d: quantity must be greater than zero", line)
	}
	if in.Value.IsNegative() {
		return validationErrorf("item %d: value cannot be negative", line)
	}
	if in.Status == "" {
		in.Status = entity.POItemStatusPending
	}
	in.Status = strings.ToUpper(in.Status)
	if !entity.IsValidPOItemStatus(in.Status) {
		return validationErrorf("item %d: invalid status %s", line, in.Status)
	}
	return nil
}

func (in *POItemInput) toEntity(poID string, sortOrder int) entity.POItem {
	return entity.POItem{
		ID:                  newID(),
		POID:                poID,
		MaterialCode:        in.MaterialCode,
		MaterialDescription: in.MaterialDescription,
		Quantity:            in.Quantity,
		Unit:                in.Unit,
		Value:               in.Value,
		Status:              in.Status,
		SortOrder:           sortOrder,
	}
}

// CreatePORequest 创建采购订单请求
type CreatePORequest struct {
	PONumber     string        `json:"po_number" binding:"required"`
	OANumber     string        `json:"oa_number" binding:"required"`
	PODate       string        `json:"po_date" binding:"required"`
	CompanyID    string        `json:"company_id" binding:"required"`
	DeliveryDate string        `json:"delivery_date"`
	Remarks      string        `json:"remarks"`
	Items        []POItemInput `json:"items"`
}

// Validate 校验并规整输入，不访问数据库
func (r *CreatePORequest) Validate() error {
	r.PONumber = strings.TrimSpace(r.PONumber)
	r.OANumber = strings.TrimSpace(r.OANumber)
	if r.PONumber == "" {
		return validationErrorf("po_number is required")
	}
	if r.OANumber == "" {
		return validationErrorf("oa_number is required")
	}
	if r.CompanyID == "" {
		return validationErrorf("company_id is required")
	}
	if _, err := parseDate(r.PODate, "po_date"); err != nil {
		return err
	}
	if _, err := parseOptionalDate(r.DeliveryDate, "delivery_date"); err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return validationErrorf("at least one item is required")
	}
	for i := range r.Items {
		if err := r.Items[i].normalize(i + 1); err != nil {
			return err
		}
	}
	return nil
}

// ListPOs 采购订单列表
func (s *POService) ListPOs(ctx context.Context, page, pageSize int, filter repository.POFilter) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, page, pageSize, filter)
}

// GetPO 采购订单详情
func (s *POService) GetPO(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.poRepo.FindByID(ctx, id)
}

// HideValues 非管理员读取PO时隐藏行项金额
func HideValues(actor Actor, po *entity.PurchaseOrder) {
	if po == nil || actor.CanViewValues() {
		return
	}
	for i := range po.Items {
		po.Items[i].Value = decimal.Zero
		po.Items[i].ValueHidden = true
	}
}

// CreatePO 创建采购订单。PO、行项、部门流程清单在同一事务内写入；
// 提交后再发通知，通知失败不影响PO。
func (s *POService) CreatePO(ctx context.Context, actor Actor, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.companyRepo.FindByID(ctx, req.CompanyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("company %s does not exist", req.CompanyID)
		}
		return nil, err
	}

	poDate, _ := parseDate(req.PODate, "po_date")
	deliveryDate, _ := parseOptionalDate(req.DeliveryDate, "delivery_date")

	po := &entity.PurchaseOrder{
		ID:           newID(),
		PONumber:     req.PONumber,
		OANumber:     req.OANumber,
		PODate:       poDate,
		CompanyID:    req.CompanyID,
		DeliveryDate: deliveryDate,
		Status:       entity.POStatusPending,
		Remarks:      req.Remarks,
		CreatedBy:    actor.UserID,
	}
	for i := range req.Items {
		po.Items = append(po.Items, req.Items[i].toEntity(po.ID, i+1))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.poRepo.WithTx(tx).Create(ctx, po); err != nil {
			return mapDuplicate(err, "po_number or oa_number already exists")
		}
		_, err := s.checklist.Instantiate(ctx, tx, po)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("po_id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.Int("items", len(po.Items)),
		zap.String("user_id", actor.UserID),
	)

	if s.notifier != nil {
		s.notifier.NotifyPOCreated(ctx, po)
	}
	return s.poRepo.FindByID(ctx, po.ID)
}

// POItemChange PO行项变更：ID为空新增，Delete为true删除，否则修改
type POItemChange struct {
	ID     string `json:"id"`
	Delete bool   `json:"delete"`
	POItemInput
}

// UpdatePORequest 更新采购订单请求
type UpdatePORequest struct {
	PONumber     *string        `json:"po_number"`
	OANumber     *string        `json:"oa_number"`
	PODate       *string        `json:"po_date"`
	CompanyID    *string        `json:"company_id"`
	DeliveryDate *string        `json:"delivery_date"`
	Status       *string        `json:"status"`
	Remarks      *string        `json:"remarks"`
	Items        []POItemChange `json:"items"`
}

// UpdatePO 更新PO头和行项，已取消的PO不可修改，部门流程清单不会重新生成
func (s *POService) UpdatePO(ctx context.Context, actor Actor, id string, req *UpdatePORequest) (*entity.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.poRepo.WithTx(tx)
		po, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}

		if err := s.applyHeader(ctx, po, req); err != nil {
			return err
		}
		if err := repo.UpdateHeader(ctx, po); err != nil {
			return mapDuplicate(err, "po_number or oa_number already exists")
		}
		if len(req.Items) == 0 {
			return nil
		}
		return s.applyItemChanges(ctx, repo, po.ID, req.Items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order updated", zap.String("po_id", id), zap.String("user_id", actor.UserID))
	return s.poRepo.FindByID(ctx, id)
}

func (s *POService) applyHeader(ctx context.Context, po *entity.PurchaseOrder, req *UpdatePORequest) error {
	if req.PONumber != nil {
		v := strings.TrimSpace(*req.PONumber)
		if v == "" {
			return validationErrorf("po_number cannot be empty")
		}
		po.PONumber = v
	}
	if req.OANumber != nil {
		v := strings.TrimSpace(*req.OANumber)
		if v == "" {
			return validationErrorf("oa_number cannot be empty")
		}
		po.OANumber = v
	}
	if req.PODate != nil {
		d, err := parseDate(*req.PODate, "po_date")
		if err != nil {
			return err
		}
		po.PODate = d
	}
	if req.DeliveryDate != nil {
		d, err := parseOptionalDate(*req.DeliveryDate, "delivery_date")
		if err != nil {
			return err
		}
		po.DeliveryDate = d
	}
	if req.CompanyID != nil && *req.CompanyID != po.CompanyID {
		if _, err := s.companyRepo.FindByID(ctx, *req.CompanyID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return validationErrorf("company %s does not exist", *req.CompanyID)
			}
			return err
		}
		po.CompanyID = *req.CompanyID
	}
	if req.Status != nil {
		status := strings.ToUpper(*req.Status)
		switch status {
		case entity.POStatusPending, entity.POStatusCompleted:
			po.Status = status
		case entity.POStatusCancelled:
			return validationErrorf("use the cancel operation to cancel a purchase order")
		default:
			return validationErrorf("invalid status %s", *req.Status)
		}
	}
	if req.Remarks != nil {
		po.Remarks = *req.Remarks
	}
	return nil
}

func (s *POService) applyItemChanges(ctx context.Context, repo *repository.PORepository, poID string, changes []POItemChange) error {
	sortOrder, err := repo.MaxSortOrder(ctx, poID)
	if err != nil {
		return err
	}

	var added []entity.POItem
	for i := range changes {
		ch := &changes[i]
		if ch.ID == "" {
			if ch.Delete {
				continue
			}
			if err := ch.normalize(i + 1); err != nil {
				return err
			}
			sortOrder++
			added = append(added, ch.toEntity(poID, sortOrder))
			continue
		}

		item, err := repo.FindItemByID(ctx, ch.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err != nil || item.POID != poID {
			return validationErrorf("item %s does not belong to this purchase order", ch.ID)
		}
		if ch.Delete {
			if err := s.deleteItem(ctx, repo, item.ID); err != nil {
				return err
			}
			continue
		}
		if err := ch.normalize(i + 1); err != nil {
			return err
		}
		item.MaterialCode = ch.MaterialCode
		item.MaterialDescription = ch.MaterialDescription
		item.Quantity = ch.Quantity
		item.Unit = ch.Unit
		item.Value = ch.Value
		item.Status = ch.Status
		if err := repo.UpdateItem(ctx, item); err != nil {
			return err
		}
	}
	if err := repo.CreateItems(ctx, added); err != nil {
		return err
	}

	count, err := repo.CountItems(ctx, poID)
	if err != nil {
		return err
	}
	if count == 0 {
		return validationErrorf("a purchase order must keep at least one item")
	}
	return nil
}

// deleteItem 被BOM或领料单引用的行项不可删除
func (s *POService) deleteItem(ctx context.Context, repo *repository.PORepository, itemID string) error {
	referenced, err := repo.ItemReferenced(ctx, itemID)
	if err != nil {
		return err
	}
	if referenced {
		return validationErrorf("item is referenced by a BOM or indent and cannot be deleted")
	}
	return repo.DeleteItem(ctx, itemID)
}

// DeleteItem 删除单个PO行项
func (s *POService) DeleteItem(ctx context.Context, actor Actor, poID, itemID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.poRepo.WithTx(tx)
		po, err := repo.LockByID(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}
		item, err := repo.FindItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.POID != poID {
			return notFoundErrorf("item %s not found in purchase order", itemID)
		}
		if err := s.deleteItem(ctx, repo, itemID); err != nil {
			return err
		}
		count, err := repo.CountItems(ctx, poID)
		if err != nil {
			return err
		}
		if count == 0 {
			return validationErrorf("a purchase order must keep at least one item")
		}
		return nil
	})
}

// CancelPO 取消PO，行项保留
func (s *POService) CancelPO(ctx context.Context, actor Actor, id string) (*entity.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.poRepo.WithTx(tx)
		po, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}
		po.Status = entity.POStatusCancelled
		return repo.UpdateHeader(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase order cancelled", zap.String("po_id", id), zap.String("user_id", actor.UserID))
	return s.poRepo.FindByID(ctx, id)
}

// DeletePO 删除PO。已有BOM或领料单时拒绝；否则级联删除行项、流程、记录和附件记录。
func (s *POService) DeletePO(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	var objectKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.poRepo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return err
		}
		has, err := repo.HasDocuments(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return validationErrorf("purchase order has BOM or indent documents and cannot be deleted")
		}
		objectKeys, err = repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	if s.objects != nil && len(objectKeys) > 0 {
		s.objects.RemoveObjects(ctx, objectKeys)
	}
	s.logger.Info("purchase order deleted",
		zap.String("po_id", id),
		zap.String("user_id", actor.UserID),
		zap.Int("attachments", len(objectKeys)),
	)
	return nil
}

// ImportResult Excel导入结果
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportItems 从Excel追加PO行项。
// 列顺序：material_code, material_description, quantity, unit, value；首行为表头。
func (s *POService) ImportItems(ctx context.Context, actor Actor, poID string, f *excelize.File) (*ImportResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, validationErrorf("read excel: %v", err)
	}

	result := &ImportResult{}
	var inputs []POItemInput
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if isBlankRow(row) {
			continue
		}
		in, err := parseItemRow(row)
		if err == nil {
			err = in.normalize(i + 1)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", i+1, err.Error()))
			continue
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return result, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.poRepo.WithTx(tx)
		po, err := repo.LockByID(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}
		sortOrder, err := repo.MaxSortOrder(ctx, poID)
		if err != nil {
			return err
		}
		items := make([]entity.POItem, 0, len(inputs))
		for i := range inputs {
			sortOrder++
			items = append(items, inputs[i].toEntity(poID, sortOrder))
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, err
	}
	result.Created = len(inputs)

	s.logger.Info("po items imported",
		zap.String("po_id", poID),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseItemRow(row []string) (POItemInput, error) {
	in := POItemInput{
		MaterialCode:        cell(row, 0),
		MaterialDescription: cell(row, 1),
		Unit:                cell(row, 3),
	}
	qty, err := decimal.NewFromString(cell(row, 2))
	if err != nil {
		return in, validationErrorf("invalid quantity %q", cell(row, 2))
	}
	in.Quantity = qty
	if v := cell(row, 4); v != "" {
		value, err := decimal.NewFromString(v)
		if err != nil {
			return in, validationErrorf("invalid value %q", v)
		}
		in.Value = value
	}
	return in, nil
}

func parseDate(v, field string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, validationErrorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

func parseOptionalDate(v, field string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := parseDate(v, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
