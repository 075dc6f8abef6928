package repository

import (
	"context"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"gorm.io/gorm"
)

// AttachmentRepository PO附件仓库
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// WithTx 绑定事务
func (r *AttachmentRepository) WithTx(tx *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: tx}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *entity.POAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.POAttachment, error) {
	var a entity.POAttachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// FindByPO 查询PO全部附件
func (r *AttachmentRepository) FindByPO(ctx context.Context, poID string) ([]entity.POAttachment, error) {
	var items []entity.POAttachment
	err := r.db.WithContext(ctx).Where("po_id = ?", poID).Order("created_at DESC").Find(&items).Error
	return items, err
}
