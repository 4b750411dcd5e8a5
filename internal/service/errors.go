package service

import (
	"errors"
	"fmt"

	"Neighbor_Board/internal/repository"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidState            = errors.New("invalid state")
	ErrSuspended               = errors.New("suspended by reports")
	ErrDuplicateReport         = errors.New("duplicate report")
	ErrDuplicatePendingRequest = errors.New("duplicate pending request")
	ErrAlreadyProcessed        = errors.New("request already processed")
	ErrAlreadyMember           = errors.New("already member")
	ErrInvalidInput            = errors.New("invalid input")
	// ErrAccessCodeExhausted 连续冲突，可稍后重试
	ErrAccessCodeExhausted = errors.New("could not allocate a unique access code")

	// ErrWrongCommunity 申请不属于该社区，对外仍是 NotFound
	ErrWrongCommunity = fmt.Errorf("%w: request belongs to another community", ErrNotFound)
)

// notFound 仓储层的 ErrRecordNotFound 转换成业务错误
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsKind 是否为可预期的业务错误
func IsKind(err error) bool {
	for _, k := range []error{ErrNotFound, ErrForbidden, ErrInvalidState, ErrSuspended, ErrDuplicateReport,
		ErrDuplicatePendingRequest, ErrAlreadyProcessed, ErrAlreadyMember, ErrInvalidInput, ErrAccessCodeExhausted} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
