package repository

import (
	"context"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndentFilter 领料单列表过滤条件
type IndentFilter struct {
	POID         string
	Status       string
	CategoryCode string
	Search       string
}

// IndentRepository 领料单仓库
type IndentRepository struct {
	db *gorm.DB
}

func NewIndentRepository(db *gorm.DB) *IndentRepository {
	return &IndentRepository{db: db}
}

// WithTx 绑定事务
func (r *IndentRepository) WithTx(tx *gorm.DB) *IndentRepository {
	return &IndentRepository{db: tx}
}

// FindAll 查询领料单列表
func (r *IndentRepository) FindAll(ctx context.Context, page, pageSize int, filter IndentFilter) ([]entity.Indent, int64, error) {
	var items []entity.Indent
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Indent{})
	if filter.POID != "" {
		query = query.Where("po_id = ?", filter.POID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryCode != "" {
		query = query.Where("category_code = ?", filter.CategoryCode)
	}
	if filter.Search != "" {
		query = query.Where("indent_number ILIKE ?", "%"+filter.Search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// FindByID 查询领料单详情
func (r *IndentRepository) FindByID(ctx context.Context, id string) (*entity.Indent, error) {
	var indent entity.Indent
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Items.POItem").
		Preload("POProcess").
		Preload("POProcess.DepartmentProcess").
		Where("id = ?", id).
		First(&indent).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &indent, nil
}

// LockByID 加行锁读取领料单（含行项）
func (r *IndentRepository) LockByID(ctx context.Context, id string) (*entity.Indent, error) {
	var indent entity.Indent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&indent).Error
	if err != nil {
		return nil, translateError(err)
	}
	if err := r.db.WithContext(ctx).Where("indent_id = ?", id).Order("created_at ASC, id ASC").Find(&indent.Items).Error; err != nil {
		return nil, err
	}
	return &indent, nil
}

// Create 创建领料单及行项
func (r *IndentRepository) Create(ctx context.Context, indent *entity.Indent) error {
	return translateError(r.db.WithContext(ctx).Omit("POProcess", "Items.POItem").Create(indent).Error)
}

// UpdateHeader 只更新领料单头
func (r *IndentRepository) UpdateHeader(ctx context.Context, indent *entity.Indent) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(indent).Error)
}

// CreateItems 新增行项
func (r *IndentRepository) CreateItems(ctx context.Context, items []entity.IndentItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error)
}

// UpdateItem 更新行项
func (r *IndentRepository) UpdateItem(ctx context.Context, item *entity.IndentItem) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

// DeleteItems 删除指定行项
func (r *IndentRepository) DeleteItems(ctx context.Context, indentID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("indent_id = ? AND id IN ?", indentID, itemIDs).
		Delete(&entity.IndentItem{}).Error
}

// Delete 删除领料单及行项
func (r *IndentRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("indent_id = ?", id).Delete(&entity.IndentItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&entity.Indent{}).Error
}
