package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChecklistService PO部门流程清单：创建时展开，之后只做状态流转
type ChecklistService struct {
	db            *gorm.DB
	statusRepo    *repository.ProcessStatusRepository
	dpRepo        *repository.DepartmentProcessRepository
	processRepo   *repository.ProcessRepository
	defaultStatus string
	logger        *zap.Logger
}

func NewChecklistService(
	db *gorm.DB,
	statusRepo *repository.ProcessStatusRepository,
	dpRepo *repository.DepartmentProcessRepository,
	processRepo *repository.ProcessRepository,
	defaultStatus string,
	logger *zap.Logger,
) *ChecklistService {
	if defaultStatus == "" {
		defaultStatus = "PENDING"
	}
	return &ChecklistService{
		db:            db,
		statusRepo:    statusRepo,
		dpRepo:        dpRepo,
		processRepo:   processRepo,
		defaultStatus: defaultStatus,
		logger:        logger,
	}
}

// Instantiate 在PO创建事务内为每个启用的部门流程定义生成一行流程和一条初始记录。
// 缺少默认状态返回配置错误，整个PO创建回滚。
func (s *ChecklistService) Instantiate(ctx context.Context, tx *gorm.DB, po *entity.PurchaseOrder) ([]entity.POProcess, error) {
	status, err := s.statusRepo.WithTx(tx).FindDefault(ctx, s.defaultStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, configErrorf("default process status %q is missing or inactive", s.defaultStatus)
		}
		return nil, err
	}

	defs, err := s.dpRepo.WithTx(tx).FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		s.logger.Warn("no active department processes, checklist skipped", zap.String("po_number", po.PONumber))
		return nil, nil
	}

	now := time.Now()
	processes := make([]entity.POProcess, 0, len(defs))
	history := make([]entity.POProcessHistory, 0, len(defs))
	for _, dp := range defs {
		p := entity.POProcess{
			ID:                  newID(),
			POID:                po.ID,
			DepartmentProcessID: dp.ID,
			CurrentStatusID:     status.ID,
			LastUpdatedBy:       po.CreatedBy,
			LastUpdatedAt:       now,
		}
		processes = append(processes, p)
		history = append(history, entity.POProcessHistory{
			ID:          newID(),
			POProcessID: p.ID,
			StatusID:    status.ID,
			Remark:      entity.AutoCreatedRemark,
			ChangedBy:   po.CreatedBy,
			ChangedAt:   now,
		})
	}

	repo := s.processRepo.WithTx(tx)
	if err := repo.CreateBatch(ctx, processes); err != nil {
		return nil, fmt.Errorf("create po processes: %w", err)
	}
	if err := repo.CreateHistoryBatch(ctx, history); err != nil {
		return nil, fmt.Errorf("create po process history: %w", err)
	}

	s.logger.Info("po checklist created",
		zap.String("po_number", po.PONumber),
		zap.Int("processes", len(processes)),
	)
	return processes, nil
}

// ListByPO PO的流程清单，按定义sequence排序并带最近备注
func (s *ChecklistService) ListByPO(ctx context.Context, poID string) ([]entity.POProcess, error) {
	processes, err := s.processRepo.FindByPO(ctx, poID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(processes))
	for i := range processes {
		ids[i] = processes[i].ID
	}
	remarks, err := s.processRepo.LatestRemarks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range processes {
		processes[i].LatestRemark = remarks[processes[i].ID]
	}
	return processes, nil
}

// GetProcess 流程详情
func (s *ChecklistService) GetProcess(ctx context.Context, id string) (*entity.POProcess, error) {
	return s.processRepo.FindByID(ctx, id)
}

// History 流程状态记录，最新在前
func (s *ChecklistService) History(ctx context.Context, processID string) ([]entity.POProcessHistory, error) {
	if _, err := s.processRepo.FindByID(ctx, processID); err != nil {
		return nil, err
	}
	return s.processRepo.FindHistory(ctx, processID)
}

// UpdateStatusRequest 流程状态变更请求
type UpdateStatusRequest struct {
	StatusID string `json:"status_id" binding:"required"`
	Remark   string `json:"remark"`
}

// UpdateStatus 变更流程状态并追加记录，两者同一事务
func (s *ChecklistService) UpdateStatus(ctx context.Context, actor Actor, processID string, req *UpdateStatusRequest) (*entity.POProcess, error) {
	process, err := s.processRepo.FindByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	if !actor.CanEditProcess(process.DepartmentProcess) {
		return nil, forbiddenErrorf("you do not have permission to update this process")
	}

	status, err := s.statusRepo.FindByID(ctx, req.StatusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("process status %s does not exist", req.StatusID)
		}
		return nil, err
	}
	if !status.IsActive {
		return nil, validationErrorf("process status %s is inactive", status.Name)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.processRepo.WithTx(tx)
		if _, err := repo.LockByID(ctx, processID); err != nil {
			return err
		}

		now := time.Now()
		if err := repo.UpdateStatus(ctx, processID, status.ID, actor.UserID, now); err != nil {
			return err
		}
		return repo.AppendHistory(ctx, &entity.POProcessHistory{
			ID:          newID(),
			POProcessID: processID,
			StatusID:    status.ID,
			Remark:      strings.TrimSpace(req.Remark),
			ChangedBy:   actor.UserID,
			ChangedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("po process status changed",
		zap.String("process_id", processID),
		zap.String("status", status.Name),
		zap.String("user_id", actor.UserID),
	)
	return s.processRepo.FindByID(ctx, processID)
}
