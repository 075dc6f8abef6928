package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
)

// AttachmentService PO附件，文件存MinIO，元数据存库
type AttachmentService struct {
	repo        *repository.AttachmentRepository
	poRepo      *repository.PORepository
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
}

func NewAttachmentService(
	repo *repository.AttachmentRepository,
	poRepo *repository.PORepository,
	minioClient *minio.Client,
	bucketName string,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		repo:        repo,
		poRepo:      poRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
	}
}

// ObjectKey 附件对象路径 po/<po_id>/<uuid>_<文件名>
func ObjectKey(poID, fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	return fmt.Sprintf("po/%s/%s_%s", poID, uuid.New().String()[:8], name)
}

func (s *AttachmentService) storageReady() error {
	if s.minioClient == nil {
		return configErrorf("attachment storage is not configured")
	}
	return nil
}

// List PO附件列表
func (s *AttachmentService) List(ctx context.Context, poID string) ([]entity.POAttachment, error) {
	if _, err := s.poRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}
	return s.repo.FindByPO(ctx, poID)
}

// Upload 上传附件
func (s *AttachmentService) Upload(ctx context.Context, actor Actor, poID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.POAttachment, error) {
	if err := s.storageReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, validationErrorf("file name is required")
	}
	if _, err := s.poRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}

	objectName := ObjectKey(poID, fileName)
	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	att := &entity.POAttachment{
		ID:         newID(),
		POID:       poID,
		FileName:   fileName,
		ObjectKey:  objectName,
		FileSize:   fileSize,
		MimeType:   contentType,
		UploadedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		// 元数据写入失败时清理已上传对象
		if rmErr := s.minioClient.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); rmErr != nil {
			s.logger.Warn("remove orphan attachment failed", zap.String("object", objectName), zap.Error(rmErr))
		}
		return nil, err
	}

	s.logger.Info("po attachment uploaded",
		zap.String("po_id", poID),
		zap.String("object", objectName),
		zap.Int64("size", fileSize),
	)
	return att, nil
}

// Download 下载附件
func (s *AttachmentService) Download(ctx context.Context, id string) (io.ReadCloser, *entity.POAttachment, error) {
	att, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.storageReady(); err != nil {
		return nil, att, err
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, att.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return object, att, nil
}

// RemoveObjects 删除对象存储中的附件文件，失败只记日志
func (s *AttachmentService) RemoveObjects(ctx context.Context, keys []string) {
	if s.minioClient == nil {
		s.logger.Warn("attachment storage not configured, objects left in place", zap.Strings("keys", keys))
		return
	}
	for _, key := range keys {
		if err := s.minioClient.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Error("remove attachment object failed", zap.String("key", key), zap.Error(err))
		}
	}
}
