package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classify переводит ошибку драйвера в типизированную ошибку ядра.
// Уже типизированные ошибки и отмена контекста возвращаются без изменений.
func classify(action string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isConnectionError(err) {
		return apperror.StorageUnavailable(action, err)
	}
	if isUniqueViolation(err) {
		return apperror.Conflict("record", action, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return pqErr.Code.Class() == "08"
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return isSQLiteConstraint(err, "UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return isSQLiteConstraint(err, "FOREIGN KEY")
}

// foreignKeyConstraint возвращает имя нарушенного внешнего ключа,
// если драйвер его сообщает (lib/pq), иначе пустую строку.
func foreignKeyConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return pqErr.Constraint
	}
	return ""
}

func isSQLiteConstraint(err error, kind string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// расширенные коды (SQLITE_CONSTRAINT_UNIQUE и т.п.) несут базовый код в младшем байте
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(sqliteErr.Error(), kind)
}
