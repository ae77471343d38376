package accommodation

import (
	"fmt"
	"strings"
	"time"

	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// DenyPolicy は予約否認の対象範囲を決めます
type DenyPolicy string

const (
	// DenyAny は状態に関係なく予約を削除します
	DenyAny DenyPolicy = "any"
	// DenyPendingOnly は承認待ちの予約だけ削除できます
	DenyPendingOnly DenyPolicy = "pending-only"
)

// ParseDenyPolicy は文字列から否認ポリシーを取得します
func ParseDenyPolicy(s string) (DenyPolicy, error) {
	switch DenyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DenyAny:
		return DenyAny, nil
	case DenyPendingOnly:
		return DenyPendingOnly, nil
	default:
		return "", fmt.Errorf("unknown deny policy %q", s)
	}
}

// Ledger は予約とチェックイン記録を保持します
// 予約IDは単調増加で、否認されたIDは再利用されません
type Ledger struct {
	bookings []model.Booking
	checkIns []model.CheckInRecord
	lastID   int
	reserved int
	now      func() time.Time
}

// NewLedger は空のLedgerを作成します
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Reserve は承認待ちの予約を追加します
// 既存の予約は変更しません
func (l *Ledger) Reserve(propertyID int) model.Booking {
	l.lastID++
	l.reserved++
	b := model.Booking{
		ID:         l.lastID,
		PropertyID: propertyID,
	}
	l.bookings = append(l.bookings, b)
	return b
}

// Approve は予約の承認フラグを立てます
// 承認済みの予約を再承認しても状態は変わりません
func (l *Ledger) Approve(id int) (model.Booking, error) {
	i := l.index(id)
	if i < 0 {
		return model.Booking{}, fmt.Errorf("%w: booking %d", model.ErrNotFound, id)
	}
	l.bookings[i].Approved = true
	return l.bookings[i], nil
}

// Deny は予約を台帳から削除します
// 存在しないIDは何もせず removed=false を返します
func (l *Ledger) Deny(id int, policy DenyPolicy) (bool, error) {
	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	if policy == DenyPendingOnly && l.bookings[i].Status() != model.BookingStatusPending {
		return false, fmt.Errorf("%w: booking %d is %s", model.ErrPrecondition, id, l.bookings[i].Status())
	}
	l.bookings = append(l.bookings[:i], l.bookings[i+1:]...)
	return true, nil
}

// CheckIn は承認済みの予約をチェックイン済みにし、記録を追加します
// 失敗時は台帳を変更しません
func (l *Ledger) CheckIn(id int, fee int) (model.CheckInRecord, error) {
	i := l.index(id)
	if i < 0 {
		return model.CheckInRecord{}, fmt.Errorf("%w: booking %d does not exist", model.ErrNotFound, id)
	}
	b := l.bookings[i]
	if !b.Approved {
		return model.CheckInRecord{}, fmt.Errorf("%w: booking %d not approved", model.ErrPrecondition, id)
	}
	if b.CheckedIn {
		return model.CheckInRecord{}, fmt.Errorf("%w: booking %d already checked in", model.ErrPrecondition, id)
	}

	l.bookings[i].CheckedIn = true
	rec := model.CheckInRecord{
		BookingID:   b.ID,
		PropertyID:  b.PropertyID,
		Fee:         fee,
		CheckedInAt: l.now(),
	}
	l.checkIns = append(l.checkIns, rec)
	return rec, nil
}

// Get は指定されたIDの予約を返します
func (l *Ledger) Get(id int) (model.Booking, bool) {
	i := l.index(id)
	if i < 0 {
		return model.Booking{}, false
	}
	return l.bookings[i], true
}

// List は全予約のコピーを返します
func (l *Ledger) List() []model.Booking {
	return l.filter(func(model.Booking) bool { return true })
}

// Pending はオーナーの承認待ち一覧です
func (l *Ledger) Pending() []model.Booking {
	return l.filter(func(b model.Booking) bool { return !b.Approved })
}

// AwaitingCheckIn は学生がチェックインできる予約の一覧です
func (l *Ledger) AwaitingCheckIn() []model.Booking {
	return l.filter(func(b model.Booking) bool { return b.Approved && !b.CheckedIn })
}

// CheckedIn はチェックイン記録のコピーを返します
func (l *Ledger) CheckedIn() []model.CheckInRecord {
	out := make([]model.CheckInRecord, len(l.checkIns))
	copy(out, l.checkIns)
	return out
}

// CheckInCount は既存のチェックイン記録数です
func (l *Ledger) CheckInCount() int {
	return len(l.checkIns)
}

// ReservationCount は否認分も含めたこれまでの予約操作数です
func (l *Ledger) ReservationCount() int {
	return l.reserved
}

// BookingIDsByProperty は物件ごとの予約IDを返します
func (l *Ledger) BookingIDsByProperty() map[int][]int {
	ids := make(map[int][]int)
	for _, b := range l.bookings {
		ids[b.PropertyID] = append(ids[b.PropertyID], b.ID)
	}
	return ids
}

func (l *Ledger) index(id int) int {
	for i, b := range l.bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) filter(keep func(model.Booking) bool) []model.Booking {
	out := make([]model.Booking, 0, len(l.bookings))
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
