package model

import (
	"fmt"
	"time"
)

// NotificationType は通知の種類を表します
type NotificationType string

const (
	// NotificationTypePropertyAdded は物件登録完了の通知です
	NotificationTypePropertyAdded NotificationType = "property_added"
	// NotificationTypeReservation は予約受付の通知です
	NotificationTypeReservation NotificationType = "reservation"
	// NotificationTypeBookingApproved は予約承認の通知です
	NotificationTypeBookingApproved NotificationType = "booking_approved"
	// NotificationTypeBookingDenied は予約否認の通知です
	NotificationTypeBookingDenied NotificationType = "booking_denied"
	// NotificationTypeCheckIn はチェックイン完了の通知です
	NotificationTypeCheckIn NotificationType = "check_in"
	// NotificationTypeError は操作失敗の通知です
	NotificationTypeError NotificationType = "error"
)

// Notification は通知先へ渡す操作結果です
// 文言はUI側の関心事で、発火条件と付随データ(手数料など)が契約になります
type Notification struct {
	Type       NotificationType `json:"type"`
	UserID     string           `json:"user_id"`
	Message    string           `json:"message"`
	ErrorKind  string           `json:"error_kind,omitempty"`
	Fee        int              `json:"fee,omitempty"`
	BookingID  int              `json:"booking_id,omitempty"`
	PropertyID int              `json:"property_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NotificationRecord は通知のドメインモデルです
// データベースに永続化される通知レコードと今回は一致しています
type NotificationRecord struct {
	ID        int              `db:"id"`
	RunID     string           `db:"run_id"`
	UserID    string           `db:"user_id"`
	Title     string           `db:"title"`
	Message   string           `db:"message"`
	IsRead    bool             `db:"is_read"`
	Type      NotificationType `db:"type"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

var notificationTitles = map[NotificationType]string{
	NotificationTypePropertyAdded:   "Property added",
	NotificationTypeReservation:     "Room reserved",
	NotificationTypeBookingApproved: "Booking approved",
	NotificationTypeBookingDenied:   "Booking denied",
	NotificationTypeCheckIn:         "Checked in",
	NotificationTypeError:           "Operation failed",
}

// ToNotificationRecord は通知を通知レコードに変換します
func (n Notification) ToNotificationRecord(runID string) (*NotificationRecord, error) {
	title, ok := notificationTitles[n.Type]
	if !ok {
		return nil, fmt.Errorf("unknown notification type: %s", n.Type)
	}

	return &NotificationRecord{
		RunID:     runID,
		UserID:    n.UserID,
		Title:     title,
		Message:   n.Message,
		IsRead:    false,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.CreatedAt,
	}, nil
}
