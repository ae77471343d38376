package model

import "errors"

// 操作失敗の分類です
// 呼び出し側は errors.Is で判定します
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrPrecondition  = errors.New("precondition failed")
	ErrAuthorization = errors.New("authorization error")
)

// ErrorKind はエラーの分類名を返します
// 分類外のエラーは "internal" になります
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	default:
		return "internal"
	}
}
