package errno

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误分类
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindStoreUnavailable Kind = "store_unavailable"
	KindRateLimited      Kind = "rate_limited"
)

// Errno 带分类的业务错误，Message 可直接展示给用户
type Errno struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Errno) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Errno) Unwrap() error {
	return e.Err
}

// Is 按 Kind 比较，使 errors.Is(err, ErrForbidden) 对任意 forbidden 错误成立
func (e *Errno) Is(target error) bool {
	t, ok := target.(*Errno)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status 返回对应的 HTTP 状态码
func (e *Errno) Status() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated  = &Errno{Kind: KindUnauthenticated, Message: "login required"}
	ErrForbidden        = &Errno{Kind: KindForbidden, Message: "forbidden"}
	ErrValidation       = &Errno{Kind: KindValidation, Message: "invalid parameter"}
	ErrNotFound         = &Errno{Kind: KindNotFound, Message: "not found"}
	ErrStoreUnavailable = &Errno{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrRateLimited      = &Errno{Kind: KindRateLimited, Message: "too many requests"}
)

func Forbidden(format string, args ...interface{}) *Errno {
	return &Errno{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Errno {
	return &Errno{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Errno {
	return &Errno{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a persistence failure.
func Store(err error) *Errno {
	return &Errno{Kind: KindStoreUnavailable, Message: "store unavailable", Err: err}
}

// From 提取错误链中的 *Errno；非业务错误视为存储故障
func From(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return Store(err)
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	var e *Errno
	if errors.As(err, &e) {
		return e.Kind == KindStoreUnavailable
	}
	return err != nil
}
