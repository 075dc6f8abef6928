package repository

import (
	"context"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// POFilter 采购订单列表过滤条件
type POFilter struct {
	Status    string
	CompanyID string
	DateFrom  *time.Time // po_date >=
	DateTo    *time.Time // po_date <=
	Search    string     // po_number / oa_number
}

// PORepository 采购订单仓库
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// WithTx 绑定事务
func (r *PORepository) WithTx(tx *gorm.DB) *PORepository {
	return &PORepository{db: tx}
}

// FindAll 查询采购订单列表
func (r *PORepository) FindAll(ctx context.Context, page, pageSize int, filter POFilter) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.DateFrom != nil {
		query = query.Where("po_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("po_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("po_number ILIKE ? OR oa_number ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Company").
		Order("created_at DESC").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找采购订单（含行项）
func (r *PORepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// LockByID 加行锁读取PO头（不含关联）
func (r *PORepository) LockByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// ShareLockByID 以共享锁读取PO头，阻止并发删除但不阻塞其他共享读者
func (r *PORepository) ShareLockByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// Create 创建采购订单及行项
func (r *PORepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return translateError(r.db.WithContext(ctx).Omit("Company").Create(po).Error)
}

// UpdateHeader 只更新PO头
func (r *PORepository) UpdateHeader(ctx context.Context, po *entity.PurchaseOrder) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(po).Error)
}

// CreateItems 批量新增行项
func (r *PORepository) CreateItems(ctx context.Context, items []entity.POItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&items).Error)
}

// UpdateItem 更新行项
func (r *PORepository) UpdateItem(ctx context.Context, item *entity.POItem) error {
	return translateError(r.db.WithContext(ctx).Save(item).Error)
}

// DeleteItem 删除行项
func (r *PORepository) DeleteItem(ctx context.Context, itemID string) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&entity.POItem{}).Error
}

// FindItemByID 查找PO行项
func (r *PORepository) FindItemByID(ctx context.Context, itemID string) (*entity.POItem, error) {
	var item entity.POItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// ShareLockItems 以共享锁读取PO下指定行项，阻止并发删除
func (r *PORepository) ShareLockItems(ctx context.Context, poID string, itemIDs []string) ([]entity.POItem, error) {
	var items []entity.POItem
	if len(itemIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("po_id = ? AND id IN ?", poID, itemIDs).
		Find(&items).Error
	return items, err
}

// CountItems 统计PO行项数
func (r *PORepository) CountItems(ctx context.Context, poID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.POItem{}).Where("po_id = ?", poID).Count(&count).Error
	return count, err
}

// MaxSortOrder 行项最大排序号
func (r *PORepository) MaxSortOrder(ctx context.Context, poID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&entity.POItem{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Where("po_id = ?", poID).
		Scan(&max).Error
	return max, err
}

// ItemReferenced PO行项是否被BOM或领料单引用
func (r *PORepository) ItemReferenced(ctx context.Context, itemID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.BOMItem{}).Where("po_item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&entity.IndentItem{}).Where("po_item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasDocuments PO是否已有BOM或领料单
func (r *PORepository) HasDocuments(ctx context.Context, poID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.BOM{}).Where("po_id = ?", poID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&entity.Indent{}).Where("po_id = ?", poID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete 删除PO，级联删除行项、部门流程及其记录、附件记录，返回附件对象路径。
// 调用方需在事务内调用并先确认无BOM/领料单引用，提交后再清理对象存储。
func (r *PORepository) Delete(ctx context.Context, id string) ([]string, error) {
	db := r.db.WithContext(ctx)
	var objectKeys []string
	if err := db.Model(&entity.POAttachment{}).Where("po_id = ?", id).Pluck("object_key", &objectKeys).Error; err != nil {
		return nil, err
	}
	processIDs := db.Model(&entity.POProcess{}).Select("id").Where("po_id = ?", id)
	if err := db.Where("po_process_id IN (?)", processIDs).Delete(&entity.POProcessHistory{}).Error; err != nil {
		return nil, err
	}
	if err := db.Where("po_id = ?", id).Delete(&entity.POProcess{}).Error; err != nil {
		return nil, err
	}
	if err := db.Where("po_id = ?", id).Delete(&entity.POAttachment{}).Error; err != nil {
		return nil, err
	}
	if err := db.Where("po_id = ?", id).Delete(&entity.POItem{}).Error; err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", id).Delete(&entity.PurchaseOrder{}).Error; err != nil {
		return nil, err
	}
	return objectKeys, nil
}
