package repository

import (
	"context"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BOMRepository BOM仓库
type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// WithTx 绑定事务
func (r *BOMRepository) WithTx(tx *gorm.DB) *BOMRepository {
	return &BOMRepository{db: tx}
}

// FindAll 查询BOM列表
func (r *BOMRepository) FindAll(ctx context.Context, page, pageSize int, poID, search string) ([]entity.BOM, int64, error) {
	var items []entity.BOM
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.BOM{})
	if poID != "" {
		query = query.Where("po_id = ?", poID)
	}
	if search != "" {
		query = query.Where("bom_no ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("PurchaseOrder").
		Order("created_at DESC").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// FindByID 查询BOM详情
func (r *BOMRepository) FindByID(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("PurchaseOrder").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Items.POItem").
		Where("id = ?", id).
		First(&bom).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &bom, nil
}

// LockByID 加行锁读取BOM头
func (r *BOMRepository) LockByID(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&bom).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &bom, nil
}

// ExistsForPO PO是否已有BOM
func (r *BOMRepository) ExistsForPO(ctx context.Context, poID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BOM{}).Where("po_id = ?", poID).Count(&count).Error
	return count > 0, err
}

// Create 创建BOM及行项
func (r *BOMRepository) Create(ctx context.Context, bom *entity.BOM) error {
	return translateError(r.db.WithContext(ctx).Omit("PurchaseOrder", "Items.POItem").Create(bom).Error)
}

// UpdateHeader 只更新BOM头
func (r *BOMRepository) UpdateHeader(ctx context.Context, bom *entity.BOM) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(bom).Error)
}

// ReplaceItems 整体替换行项
func (r *BOMRepository) ReplaceItems(ctx context.Context, bomID string, items []entity.BOMItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bom_id = ?", bomID).Delete(&entity.BOMItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return translateError(db.Omit(clause.Associations).Create(&items).Error)
}

// Delete 删除BOM及行项
func (r *BOMRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bom_id = ?", id).Delete(&entity.BOMItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&entity.BOM{}).Error
}
