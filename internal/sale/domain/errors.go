package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSaleNotFound     = errors.New("sale not found")
	ErrDuplicateInvoice = errors.New("duplicate invoice number")
	ErrPersistence      = errors.New("persistence failure")
)

// PersistenceError 存储层错误，保留原始错误
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrPersistence) 成立
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
