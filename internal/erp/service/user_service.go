package service

import (
	"context"
	"strings"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
)

// UserService 用户目录
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UserRequest 用户创建/更新请求
type UserRequest struct {
	Username   string `json:"username" binding:"required"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
	IsActive   *bool  `json:"is_active"`
}

func (r *UserRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return validationErrorf("username is required")
	}
	if r.Department != "" && !entity.IsValidDepartment(r.Department) {
		return validationErrorf("invalid department %s", r.Department)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, department string) ([]entity.User, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, department)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 新建用户（管理员）
func (s *UserService) Create(ctx context.Context, actor Actor, req *UserRequest) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:         newID(),
		Username:   req.Username,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		IsAdmin:    req.IsAdmin,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapDuplicate(err, "username already exists")
	}
	return user, nil
}

// Update 修改用户，is_active=false 即停用
func (s *UserService) Update(ctx context.Context, actor Actor, id string, req *UserRequest) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Username = req.Username
	user.Name = req.Name
	user.Email = req.Email
	user.Department = req.Department
	user.IsAdmin = req.IsAdmin
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, mapDuplicate(err, "username already exists")
	}
	return user, nil
}
