package mysql

import (
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"finapp-backend/internal/domain/uow"
)

const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// mapTxErr turns lock contention reported by MySQL into ErrTransactionConflict
// so the unit of work can retry it.
func mapTxErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && (me.Number == errDeadlock || me.Number == errLockWaitTimeout) {
		return fmt.Errorf("%w: %v", uow.ErrTransactionConflict, err)
	}
	return err
}
