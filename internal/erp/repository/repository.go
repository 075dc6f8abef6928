package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// pgUniqueViolation PostgreSQL唯一约束冲突错误码
const pgUniqueViolation = "23505"

// Repositories ERP仓库集合
type Repositories struct {
	User              *UserRepository
	Item              *ItemRepository
	Company           *CompanyRepository
	ProcessStatus     *ProcessStatusRepository
	DepartmentProcess *DepartmentProcessRepository
	PO                *PORepository
	Process           *ProcessRepository
	BOM               *BOMRepository
	Indent            *IndentRepository
	Notification      *NotificationRepository
	Attachment        *AttachmentRepository
	Sequence          *SequenceRepository
}

// NewRepositories 创建ERP仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:              NewUserRepository(db),
		Item:              NewItemRepository(db),
		Company:           NewCompanyRepository(db),
		ProcessStatus:     NewProcessStatusRepository(db),
		DepartmentProcess: NewDepartmentProcessRepository(db),
		PO:                NewPORepository(db),
		Process:           NewProcessRepository(db),
		BOM:               NewBOMRepository(db),
		Indent:            NewIndentRepository(db),
		Notification:      NewNotificationRepository(db),
		Attachment:        NewAttachmentRepository(db),
		Sequence:          NewSequenceRepository(db),
	}
}

// translateError 将gorm/pg错误转换为仓库层错误
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
