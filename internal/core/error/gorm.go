package errx

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// WrapDB maps gorm errors onto AppError; ErrRecordNotFound becomes not_found.
func WrapDB(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(err, KindNotFound, http.StatusNotFound, what+" not found")
	}
	return New(err, KindStorage, http.StatusInternalServerError, StorageErrorMessage+": "+what)
}
