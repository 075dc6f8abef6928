package repository

import (
	"context"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessRepository PO部门流程及状态记录仓库
type ProcessRepository struct {
	db *gorm.DB
}

func NewProcessRepository(db *gorm.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

// WithTx 绑定事务
func (r *ProcessRepository) WithTx(tx *gorm.DB) *ProcessRepository {
	return &ProcessRepository{db: tx}
}

// CreateBatch 批量创建部门流程
func (r *ProcessRepository) CreateBatch(ctx context.Context, processes []entity.POProcess) error {
	if len(processes) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&processes).Error)
}

// CreateHistoryBatch 批量追加状态记录
func (r *ProcessRepository) CreateHistoryBatch(ctx context.Context, history []entity.POProcessHistory) error {
	if len(history) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&history).Error)
}

// AppendHistory 追加一条状态记录
func (r *ProcessRepository) AppendHistory(ctx context.Context, h *entity.POProcessHistory) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error)
}

// FindByPO 查询PO的部门流程，按定义sequence排序
func (r *ProcessRepository) FindByPO(ctx context.Context, poID string) ([]entity.POProcess, error) {
	var items []entity.POProcess
	err := r.db.WithContext(ctx).
		Joins("JOIN erp_department_processes dp ON dp.id = erp_po_processes.department_process_id").
		Preload("DepartmentProcess").
		Preload("CurrentStatus").
		Where("erp_po_processes.po_id = ?", poID).
		Order("dp.sequence ASC").
		Find(&items).Error
	return items, err
}

// LatestRemarks 每个流程最近一条记录的备注
func (r *ProcessRepository) LatestRemarks(ctx context.Context, processIDs []string) (map[string]string, error) {
	result := make(map[string]string, len(processIDs))
	if len(processIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		POProcessID string
		Remark      string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (po_process_id) po_process_id, remark
		FROM erp_po_process_histories
		WHERE po_process_id IN ?
		ORDER BY po_process_id, row_no DESC`, processIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.POProcessID] = row.Remark
	}
	return result, nil
}

// FindByID 查询单个部门流程
func (r *ProcessRepository) FindByID(ctx context.Context, id string) (*entity.POProcess, error) {
	var p entity.POProcess
	err := r.db.WithContext(ctx).
		Preload("DepartmentProcess").
		Preload("CurrentStatus").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// LockByID 加行锁读取部门流程
func (r *ProcessRepository) LockByID(ctx context.Context, id string) (*entity.POProcess, error) {
	var p entity.POProcess
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// UpdateStatus 更新当前状态
func (r *ProcessRepository) UpdateStatus(ctx context.Context, id, statusID, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.POProcess{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_status_id": statusID,
			"last_updated_by":   userID,
			"last_updated_at":   at,
		}).Error
}

// FindHistory 查询状态记录，最新在前
func (r *ProcessRepository) FindHistory(ctx context.Context, processID string) ([]entity.POProcessHistory, error) {
	var items []entity.POProcessHistory
	err := r.db.WithContext(ctx).
		Preload("Status").
		Where("po_process_id = ?", processID).
		Order("row_no DESC").
		Find(&items).Error
	return items, err
}
