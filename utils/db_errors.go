package utils

import (
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// IsDuplicateError 判断错误是否为唯一约束冲突，兼容未开启 TranslateError 的连接
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return false
}

// NormalizeDuplicateError 把驱动原生的唯一约束错误统一包装为 gorm.ErrDuplicatedKey
func NormalizeDuplicateError(err error) error {
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) || !IsDuplicateError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", gorm.ErrDuplicatedKey, err)
}
