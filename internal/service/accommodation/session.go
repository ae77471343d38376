package accommodation

import (
	"fmt"
	"strings"
	"time"

	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// SessionContext はログイン中の利用者と役割を管理します
type SessionContext struct {
	selectedRole model.Role
	current      *model.Session
	now          func() time.Time
}

// NewSessionContext は未ログイン状態のSessionContextを作成します
func NewSessionContext() *SessionContext {
	return &SessionContext{now: time.Now}
}

// SelectRole はウェルカム画面での役割選択です
// ログイン時の選択が優先され、この値はログイン完了で破棄されます
func (s *SessionContext) SelectRole(role model.Role) {
	s.selectedRole = role
}

// SelectedRole はログイン前に選択された役割です
func (s *SessionContext) SelectedRole() model.Role {
	return s.selectedRole
}

// Login はセッションを開始します
// 資格情報はサーバー側で検証せず、空でないことだけを確認します
func (s *SessionContext) Login(username, password string, role model.Role) (model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Session{}, fmt.Errorf("%w: username and password are required", model.ErrValidation)
	}
	if role != model.RoleStudent && role != model.RoleOwner {
		return model.Session{}, fmt.Errorf("%w: role is required", model.ErrValidation)
	}

	s.current = &model.Session{
		Username:   username,
		Role:       role,
		LoggedInAt: s.now(),
	}
	s.selectedRole = ""

	return *s.current, nil
}

// Logout はセッションを無条件に破棄します
func (s *SessionContext) Logout() {
	s.current = nil
	s.selectedRole = ""
}

// Current は現在のセッションを返します
func (s *SessionContext) Current() (model.Session, bool) {
	if s.current == nil {
		return model.Session{}, false
	}
	return *s.current, true
}

// require は現在の役割が期待どおりかをチェックします
func (s *SessionContext) require(role model.Role) (model.Session, error) {
	if s.current == nil {
		return model.Session{}, fmt.Errorf("%w: not logged in", model.ErrAuthorization)
	}
	if s.current.Role != role {
		return model.Session{}, fmt.Errorf("%w: %s role required, session is %s", model.ErrAuthorization, role, s.current.Role)
	}
	return *s.current, nil
}
