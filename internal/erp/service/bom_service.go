package service

import (
	"context"
	"strings"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BOMService BOM服务
type BOMService struct {
	db        *gorm.DB
	bomRepo   *repository.BOMRepository
	poRepo    *repository.PORepository
	numbering *NumberingService
	logger    *zap.Logger
}

func NewBOMService(
	db *gorm.DB,
	bomRepo *repository.BOMRepository,
	poRepo *repository.PORepository,
	numbering *NumberingService,
	logger *zap.Logger,
) *BOMService {
	return &BOMService{
		db:        db,
		bomRepo:   bomRepo,
		poRepo:    poRepo,
		numbering: numbering,
		logger:    logger,
	}
}

// BOMItemInput BOM行项输入
type BOMItemInput struct {
	POItemID string          `json:"po_item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Remarks  string          `json:"remarks"`
}

// CreateBOMRequest 创建BOM请求
type CreateBOMRequest struct {
	POID    string         `json:"po_id" binding:"required"`
	Remarks string         `json:"remarks"`
	Items   []BOMItemInput `json:"items"`
}

// validateBOMItems 至少一行，数量>0，同一PO行项不可重复
func validateBOMItems(items []BOMItemInput) error {
	if len(items) == 0 {
		return validationErrorf("at least one item is required")
	}
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.POItemID == "" {
			return validationErrorf("item %d: po_item_id is required", i+1)
		}
		if seen[it.POItemID] {
			return validationErrorf("item %d: po item %s is listed more than once", i+1, it.POItemID)
		}
		seen[it.POItemID] = true
		if !it.Quantity.IsPositive() {
			return validationErrorf("item %d: quantity must be greater than zero", i+1)
		}
	}
	return nil
}

// ListBOMs BOM列表
func (s *BOMService) ListBOMs(ctx context.Context, page, pageSize int, poID, search string) ([]entity.BOM, int64, error) {
	return s.bomRepo.FindAll(ctx, page, pageSize, poID, search)
}

// GetBOM BOM详情
func (s *BOMService) GetBOM(ctx context.Context, id string) (*entity.BOM, error) {
	return s.bomRepo.FindByID(ctx, id)
}

// CreateBOM 创建BOM。编号、重复检查、行项写入在同一事务内；
// 编号锁先于重复检查获取，同一PO的并发创建只有一个能成功。
func (s *BOMService) CreateBOM(ctx context.Context, actor Actor, req *CreateBOMRequest) (*entity.BOM, error) {
	if err := validateBOMItems(req.Items); err != nil {
		return nil, err
	}

	var bom *entity.BOM
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poRepo := s.poRepo.WithTx(tx)
		bomRepo := s.bomRepo.WithTx(tx)

		po, err := poRepo.ShareLockByID(ctx, req.POID)
		if err != nil {
			return err
		}
		if po.Status == entity.POStatusCancelled {
			return ErrPOCancelled
		}

		number, err := s.numbering.Next(ctx, tx, BOMScope(po))
		if err != nil {
			return err
		}

		exists, err := bomRepo.ExistsForPO(ctx, po.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBOM
		}

		poItems, err := lockPOItems(ctx, poRepo, po.ID, bomItemIDs(req.Items))
		if err != nil {
			return err
		}

		bom = &entity.BOM{
			ID:        newID(),
			BOMNo:     number,
			POID:      po.ID,
			Remarks:   req.Remarks,
			CreatedBy: actor.UserID,
		}
		bom.Items = buildBOMItems(bom.ID, req.Items, poItems)

		if err := bomRepo.Create(ctx, bom); err != nil {
			return mapDuplicate(err, "BOM number already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bom created",
		zap.String("bom_no", bom.BOMNo),
		zap.String("po_id", bom.POID),
		zap.Int("items", len(bom.Items)),
	)
	return s.bomRepo.FindByID(ctx, bom.ID)
}

// UpdateBOMRequest 更新BOM请求，Items 非空时整体替换
type UpdateBOMRequest struct {
	Remarks *string        `json:"remarks"`
	Items   []BOMItemInput `json:"items"`
}

// UpdateBOM 更新BOM备注和行项，编号与所属PO不变
func (s *BOMService) UpdateBOM(ctx context.Context, actor Actor, id string, req *UpdateBOMRequest) (*entity.BOM, error) {
	if req.Items != nil {
		if err := validateBOMItems(req.Items); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bomRepo := s.bomRepo.WithTx(tx)
		bom, err := bomRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Remarks != nil {
			bom.Remarks = *req.Remarks
			if err := bomRepo.UpdateHeader(ctx, bom); err != nil {
				return err
			}
		}
		if req.Items == nil {
			return nil
		}
		poItems, err := lockPOItems(ctx, s.poRepo.WithTx(tx), bom.POID, bomItemIDs(req.Items))
		if err != nil {
			return err
		}
		return bomRepo.ReplaceItems(ctx, bom.ID, buildBOMItems(bom.ID, req.Items, poItems))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bom updated", zap.String("bom_id", id), zap.String("user_id", actor.UserID))
	return s.bomRepo.FindByID(ctx, id)
}

// DeleteBOM 删除BOM（管理员）
func (s *BOMService) DeleteBOM(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bomRepo := s.bomRepo.WithTx(tx)
		if _, err := bomRepo.LockByID(ctx, id); err != nil {
			return err
		}
		return bomRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("bom deleted", zap.String("bom_id", id), zap.String("user_id", actor.UserID))
	return nil
}

func bomItemIDs(items []BOMItemInput) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.POItemID
	}
	return ids
}

func buildBOMItems(bomID string, inputs []BOMItemInput, poItems map[string]entity.POItem) []entity.BOMItem {
	items := make([]entity.BOMItem, 0, len(inputs))
	for _, in := range inputs {
		unit := strings.TrimSpace(in.Unit)
		if unit == "" {
			unit = poItems[in.POItemID].Unit
		}
		items = append(items, entity.BOMItem{
			ID:       newID(),
			BOMID:    bomID,
			POItemID: in.POItemID,
			Quantity: in.Quantity,
			Unit:     unit,
			Remarks:  in.Remarks,
		})
	}
	return items
}

// lockPOItems 共享锁读取引用的PO行项，全部必须属于该PO
func lockPOItems(ctx context.Context, repo *repository.PORepository, poID string, ids []string) (map[string]entity.POItem, error) {
	items, err := repo.ShareLockItems(ctx, poID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.POItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, validationErrorf("po item %s does not belong to this purchase order", id)
		}
	}
	return byID, nil
}
