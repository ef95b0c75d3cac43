package services

import (
	"context"
	"errors"

	"github.com/2am33m/kinect/internal/repository"
	"github.com/google/uuid"
)

// 错误类别，配合 errors.Is 使用
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrStorage          = errors.New("storage error")
)

// Error 携带面向用户的信息，同时 unwrap 到类别和底层错误
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// storageError 不把数据库细节暴露给调用方
func storageError(err error) *Error {
	return &Error{Kind: ErrStorage, Message: "internal storage error", Err: err}
}

func requireUser(ctx context.Context, users repository.UserRepository, id uuid.UUID) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return storageError(err)
	}
	if !ok {
		return newError(ErrNotFound, "user not found")
	}
	return nil
}

func clampLimit(limit, def int) int {
	if limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}
