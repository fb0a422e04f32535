package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// ErrDuplicateKey 违反唯一约束
var ErrDuplicateKey = errors.New("记录已存在")

// PostgreSQL 错误码
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError 将数据库约束冲突映射为领域错误
// 排他约束与串行化失败都意味着并发预约抢占了同一时段
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation, pgSerializationFailure, pgDeadlockDetected:
		return pkgerrors.NewConflict("所选时段已被其他预约占用，请更换时段")
	case pgUniqueViolation:
		return ErrDuplicateKey
	}
	return err
}
