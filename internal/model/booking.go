package model

import "time"

// BookingStatus は予約の状態です
// 否認された予約は台帳から削除されるため状態を持ちません
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusCheckedIn BookingStatus = "checked_in"
)

// Booking は学生による予約です
type Booking struct {
	ID         int  `json:"id"`
	PropertyID int  `json:"property_id"`
	Approved   bool `json:"approved"`
	CheckedIn  bool `json:"checked_in"`
}

// Status はフラグから予約の状態を返します
func (b Booking) Status() BookingStatus {
	switch {
	case b.CheckedIn:
		return BookingStatusCheckedIn
	case b.Approved:
		return BookingStatusApproved
	default:
		return BookingStatusPending
	}
}

// CheckInRecord はチェックイン成功時に作成される読み取り専用の記録です
// オーナーのチェックイン一覧で利用され、作成後は変更も削除もされません
type CheckInRecord struct {
	BookingID   int       `json:"id" db:"booking_id"`
	PropertyID  int       `json:"property_id" db:"property_id"`
	Fee         int       `json:"fee" db:"fee"`
	CheckedInAt time.Time `json:"checked_in_at" db:"checked_in_at"`
}
