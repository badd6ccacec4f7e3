package employee

import (
	"errors"
	"strings"

	employeeerrors "go-leavedesk/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "uq_employee_matricule":
				return employeeerrors.ErrMatriculeAlreadyExists
			case "uq_employee_user":
				return employeeerrors.ErrEmployeeAlreadyExists
			}
		}
	}

	// sqlite reports the column, not the index name
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unique constraint failed") || strings.Contains(errMsg, "duplicate key value") {
		switch {
		case strings.Contains(errMsg, "matricule"):
			return employeeerrors.ErrMatriculeAlreadyExists
		case strings.Contains(errMsg, "user_id"), strings.Contains(errMsg, "uq_employee_user"):
			return employeeerrors.ErrEmployeeAlreadyExists
		}
	}

	return err
}
