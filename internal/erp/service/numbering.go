package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberWidth 序号补零位数
const numberWidth = 4

// NumberScope 编号作用域：同一作用域内编号唯一且递增
type NumberScope struct {
	Table      string                 // 被编号记录所在表
	Column     string                 // 编号列
	Conditions map[string]interface{} // 作用域过滤条件
	Prefix     string                 // 编号前缀，如 BOM/PO-1001
}

// key 咨询锁键，同表同前缀即同一作用域
func (s NumberScope) key() string {
	return s.Table + ":" + s.Prefix
}

// ParseSequence 解析编号最后一段序号，无法解析时视为0
func ParseSequence(number string) int {
	seg := number
	if idx := strings.LastIndex(number, "/"); idx >= 0 {
		seg = number[idx+1:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatNumber 前缀 + 补零序号
func FormatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s/%0*d", prefix, numberWidth, seq)
}

// BOMScope BOM编号作用域 BOM/<po_number>
func BOMScope(po *entity.PurchaseOrder) NumberScope {
	return NumberScope{
		Table:      entity.BOM{}.TableName(),
		Column:     "bom_no",
		Conditions: map[string]interface{}{"po_id": po.ID},
		Prefix:     "BOM/" + po.PONumber,
	}
}

// NumberingService 单据编号服务
type NumberingService struct {
	seqRepo    *repository.SequenceRepository
	categories map[string]string // 部门流程定义ID -> 类别编码
	logger     *zap.Logger
}

func NewNumberingService(seqRepo *repository.SequenceRepository, categories map[string]string, logger *zap.Logger) *NumberingService {
	c := make(map[string]string, len(categories))
	for id, code := range categories {
		c[id] = strings.ToUpper(code)
	}
	return &NumberingService{seqRepo: seqRepo, categories: c, logger: logger}
}

// CategoryCode 部门流程定义对应的领料类别编码
func (s *NumberingService) CategoryCode(departmentProcessID string) (string, bool) {
	code, ok := s.categories[departmentProcessID]
	return code, ok
}

// IndentScope 领料单编号作用域 IND/<po_number>/<code>，未映射的流程定义属于配置错误
func (s *NumberingService) IndentScope(po *entity.PurchaseOrder, departmentProcessID string) (NumberScope, error) {
	code, ok := s.CategoryCode(departmentProcessID)
	if !ok {
		return NumberScope{}, configErrorf("department process %s has no indent category mapping", departmentProcessID)
	}
	return NumberScope{
		Table:      entity.Indent{}.TableName(),
		Column:     "indent_number",
		Conditions: map[string]interface{}{"po_id": po.ID, "category_code": code},
		Prefix:     fmt.Sprintf("IND/%s/%s", po.PONumber, code),
	}, nil
}

// Next 生成作用域内下一个编号。必须在事务内调用，
// 锁持有到事务结束，调用方在同一事务内保存单据；事务回滚则编号不消耗。
func (s *NumberingService) Next(ctx context.Context, tx *gorm.DB, scope NumberScope) (string, error) {
	repo := s.seqRepo.WithTx(tx)
	if err := repo.LockScope(ctx, scope.key()); err != nil {
		return "", fmt.Errorf("lock numbering scope: %w", err)
	}

	last, found, err := repo.LockLastNumber(ctx, scope.Table, scope.Column, scope.Conditions)
	if err != nil {
		return "", fmt.Errorf("read last number: %w", err)
	}

	seq := 0
	if found {
		seq = ParseSequence(last)
	}
	number := FormatNumber(scope.Prefix, seq+1)

	s.logger.Debug("document number generated",
		zap.String("scope", scope.key()),
		zap.String("last", last),
		zap.String("number", number),
	)
	return number, nil
}
