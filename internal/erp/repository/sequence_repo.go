package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 单据编号的加锁读取
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// WithTx 绑定事务，编号相关方法只能在事务内调用
func (r *SequenceRepository) WithTx(tx *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: tx}
}

// LockScope 对编号作用域加事务级咨询锁，事务结束自动释放。
// 作用域内还没有任何记录时，FOR UPDATE 锁不到行，需要这把锁串行化首个编号。
func (r *SequenceRepository) LockScope(ctx context.Context, scopeKey string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", scopeKey).Error
}

// LockLastNumber 锁定作用域内最后插入的一条记录并返回其编号。
// 按数据库分配的 row_no 取，不依赖应用服务器时钟。
func (r *SequenceRepository) LockLastNumber(ctx context.Context, table, column string, scope map[string]interface{}) (string, bool, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(scope).
		Order("row_no DESC").
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil {
		return "", false, err
	}
	if len(numbers) == 0 {
		return "", false, nil
	}
	return numbers[0], true, nil
}
