package service

import (
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/sandip-dolai/suntechERP/internal/config"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services ERP 服务集合
type Services struct {
	User         *UserService
	Master       *MasterService
	Numbering    *NumberingService
	Checklist    *ChecklistService
	PO           *POService
	BOM          *BOMService
	Indent       *IndentService
	Notification *NotificationService
	Attachment   *AttachmentService
}

// NewServices 创建服务集合，rdb 为 nil 时不使用缓存，未配置MinIO时附件不可用
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio client init failed, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	categories := cfg.ERP.IndentCategories
	if len(categories) == 0 {
		categories = config.DefaultIndentCategories()
	}

	numbering := NewNumberingService(repos.Sequence, categories, logger)
	checklist := NewChecklistService(db, repos.ProcessStatus, repos.DepartmentProcess, repos.Process, cfg.ERP.DefaultStatus, logger)
	notification := NewNotificationService(repos.Notification, repos.User, logger)

	attachment := NewAttachmentService(repos.Attachment, repos.PO, minioClient, cfg.MinIO.Bucket, logger)
	po := NewPOService(db, repos.PO, repos.Company, checklist, logger)
	po.SetNotifier(notification)
	po.SetObjectRemover(attachment)

	return &Services{
		User:         NewUserService(repos.User),
		Master:       NewMasterService(repos, NewMasterCache(rdb, cfg.ERP.MasterCacheTTL, logger), logger),
		Numbering:    numbering,
		Checklist:    checklist,
		PO:           po,
		BOM:          NewBOMService(db, repos.BOM, repos.PO, numbering, logger),
		Indent:       NewIndentService(db, repos.Indent, repos.PO, repos.Process, numbering, logger),
		Notification: notification,
		Attachment:   attachment,
	}
}

func newID() string {
	return uuid.New().String()[:32]
}
