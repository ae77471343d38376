package model

import (
	"fmt"
	"strings"
	"time"
)

// Role はセッション利用者の役割です
type Role string

const (
	// RoleStudent は物件を予約してチェックインする学生です
	RoleStudent Role = "student"
	// RoleOwner は物件を登録して予約を承認する物件オーナーです
	RoleOwner Role = "owner"
)

// ParseRole は文字列から役割を取得します
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleOwner:
		return RoleOwner, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Session はログイン中の利用者を表します
// ログアウトで破棄されます
type Session struct {
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	LoggedInAt time.Time `json:"logged_in_at"`
}
