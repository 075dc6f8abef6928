package repository

import (
	"context"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
)

// ItemRepository 物料主数据仓库
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// FindAll 查询物料列表
func (r *ItemRepository) FindAll(ctx context.Context, page, pageSize int, search string) ([]entity.Item, int64, error) {
	var items []entity.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Item{})
	if search != "" {
		query = query.Where("code ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("code ASC").Offset(offset(page, pageSize)).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	return translateError(r.db.WithContext(ctx).Save(item).Error)
}

// CompanyRepository 客户/供应商仓库
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindAll 查询公司列表
func (r *CompanyRepository) FindAll(ctx context.Context, page, pageSize int, search string) ([]entity.Company, int64, error) {
	var items []entity.Company
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Company{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("code ILIKE ? OR code2 ILIKE ? OR name ILIKE ?", like, like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("code ASC").Offset(offset(page, pageSize)).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, translateError(err)
	}
	return &company, nil
}

func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	return translateError(r.db.WithContext(ctx).Create(company).Error)
}

func (r *CompanyRepository) Update(ctx context.Context, company *entity.Company) error {
	return translateError(r.db.WithContext(ctx).Save(company).Error)
}

// ProcessStatusRepository 流程状态字典仓库
type ProcessStatusRepository struct {
	db *gorm.DB
}

func NewProcessStatusRepository(db *gorm.DB) *ProcessStatusRepository {
	return &ProcessStatusRepository{db: db}
}

// WithTx 绑定事务
func (r *ProcessStatusRepository) WithTx(tx *gorm.DB) *ProcessStatusRepository {
	return &ProcessStatusRepository{db: tx}
}

func (r *ProcessStatusRepository) FindAll(ctx context.Context, activeOnly bool) ([]entity.ProcessStatus, error) {
	var items []entity.ProcessStatus
	query := r.db.WithContext(ctx).Model(&entity.ProcessStatus{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *ProcessStatusRepository) FindByID(ctx context.Context, id string) (*entity.ProcessStatus, error) {
	var status entity.ProcessStatus
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&status).Error; err != nil {
		return nil, translateError(err)
	}
	return &status, nil
}

// FindDefault 按名称（不区分大小写）查找启用中的默认状态
func (r *ProcessStatusRepository) FindDefault(ctx context.Context, name string) (*entity.ProcessStatus, error) {
	var status entity.ProcessStatus
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).
		First(&status).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &status, nil
}

func (r *ProcessStatusRepository) Create(ctx context.Context, status *entity.ProcessStatus) error {
	return translateError(r.db.WithContext(ctx).Create(status).Error)
}

func (r *ProcessStatusRepository) Update(ctx context.Context, status *entity.ProcessStatus) error {
	return translateError(r.db.WithContext(ctx).Save(status).Error)
}

// DepartmentProcessRepository 部门流程定义仓库
type DepartmentProcessRepository struct {
	db *gorm.DB
}

func NewDepartmentProcessRepository(db *gorm.DB) *DepartmentProcessRepository {
	return &DepartmentProcessRepository{db: db}
}

// WithTx 绑定事务
func (r *DepartmentProcessRepository) WithTx(tx *gorm.DB) *DepartmentProcessRepository {
	return &DepartmentProcessRepository{db: tx}
}

// FindAll 按sequence排序查询
func (r *DepartmentProcessRepository) FindAll(ctx context.Context, activeOnly bool) ([]entity.DepartmentProcess, error) {
	var items []entity.DepartmentProcess
	query := r.db.WithContext(ctx).Model(&entity.DepartmentProcess{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sequence ASC").Find(&items).Error
	return items, err
}

func (r *DepartmentProcessRepository) FindByID(ctx context.Context, id string) (*entity.DepartmentProcess, error) {
	var dp entity.DepartmentProcess
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dp).Error; err != nil {
		return nil, translateError(err)
	}
	return &dp, nil
}

// MaxSequence 当前最大sequence，无记录时为0
func (r *DepartmentProcessRepository) MaxSequence(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&entity.DepartmentProcess{}).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	return max, err
}

func (r *DepartmentProcessRepository) Create(ctx context.Context, dp *entity.DepartmentProcess) error {
	return translateError(r.db.WithContext(ctx).Create(dp).Error)
}

// Update 只更新名称和启用状态，部门不可变
func (r *DepartmentProcessRepository) Update(ctx context.Context, dp *entity.DepartmentProcess) error {
	err := r.db.WithContext(ctx).
		Model(dp).
		Select("name", "is_active", "updated_at").
		Updates(dp).Error
	return translateError(err)
}

// Reorder 按给定顺序重排sequence（1..n），整体在一个事务内完成。
// 先取负值腾出唯一索引空间，再写入最终值。
func (r *DepartmentProcessRepository) Reorder(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE erp_department_processes SET sequence = -sequence WHERE sequence > 0").Error; err != nil {
			return err
		}
		for i, id := range ids {
			res := tx.Model(&entity.DepartmentProcess{}).Where("id = ?", id).Update("sequence", i+1)
			if res.Error != nil {
				return translateError(res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}
