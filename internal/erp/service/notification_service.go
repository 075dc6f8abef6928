package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// NotificationService 站内通知
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, logger: logger}
}

// NotifyPOCreated 给每个启用用户发一条PO创建通知，失败只记日志
func (s *NotificationService) NotifyPOCreated(ctx context.Context, po *entity.PurchaseOrder) {
	userIDs, err := s.userRepo.FindActiveIDs(ctx)
	if err != nil {
		s.logger.Error("load active users for notification failed", zap.String("po_number", po.PONumber), zap.Error(err))
		return
	}
	if len(userIDs) == 0 {
		return
	}

	meta, _ := json.Marshal(map[string]string{
		"po_id":     po.ID,
		"po_number": po.PONumber,
		"event":     "po_created",
	})

	items := make([]entity.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		items = append(items, entity.Notification{
			ID:       newID(),
			UserID:   uid,
			Title:    "New Purchase Order",
			Message:  fmt.Sprintf("Purchase order %s has been created", po.PONumber),
			URL:      "/purchase-orders/" + po.ID,
			IsRead:   false,
			Metadata: datatypes.JSON(meta),
		})
	}
	if err := s.repo.CreateBatch(ctx, items); err != nil {
		s.logger.Error("create po notifications failed", zap.String("po_number", po.PONumber), zap.Error(err))
		return
	}
	s.logger.Debug("po notifications created", zap.String("po_number", po.PONumber), zap.Int("count", len(items)))
}

// List 我的通知
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.repo.FindByUser(ctx, actor.UserID, unreadOnly, page, pageSize)
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	return s.repo.MarkRead(ctx, id, actor.UserID)
}

// MarkAllRead 全部已读
func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID)
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}
