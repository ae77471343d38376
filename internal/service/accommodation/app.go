package accommodation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// Options はAppの動作設定です
type Options struct {
	// ReservationDelay は予約確定メッセージを出すまでの待ち時間です
	// 0の場合は同期的に確定します
	ReservationDelay time.Duration
	DenyPolicy       DenyPolicy
	FirstFee         int
	RepeatFee        int
	Notifier         Notifier
}

// Snapshot はある時点のアプリケーション状態です
type Snapshot struct {
	Session            *model.Session        `json:"session"`
	SelectedRole       model.Role            `json:"selected_role,omitempty"`
	Properties         []model.Property      `json:"properties"`
	Bookings           []model.Booking       `json:"bookings"`
	PendingBookings    []model.Booking       `json:"pending_bookings"`
	AwaitingCheckIn    []model.Booking       `json:"awaiting_check_in"`
	CheckedIn          []model.CheckInRecord `json:"checked_in"`
	Ratings            map[int]int           `json:"ratings"`
	ReservationFeeHint int                   `json:"reservation_fee_hint"`
	CheckInFee         int                   `json:"check_in_fee"`
	Loading            bool                  `json:"loading"`
}

// App は1セッション分のアプリケーション状態を所有するコントローラーです
// 台帳と物件カタログの更新は全てmuで直列化されます
type App struct {
	mu       sync.Mutex
	registry *Registry
	ledger   *Ledger
	fees     FeeCalculator
	session  *SessionContext
	ratings  map[int]int

	reservationFeeHint int
	checkInFee         int
	inflight           int
	pending            sync.WaitGroup

	// lastConfirm は直前の予約確定処理の完了を表します
	lastConfirm chan struct{}

	denyPolicy DenyPolicy
	delay      time.Duration
	notifier   Notifier
	now        func() time.Time
}

// NewApp は新しいAppを作成します
func NewApp(opts Options) *App {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	policy := opts.DenyPolicy
	if policy == "" {
		policy = DenyAny
	}

	return &App{
		registry:   NewRegistry(),
		ledger:     NewLedger(),
		fees:       NewFeeCalculator(opts.FirstFee, opts.RepeatFee),
		session:    NewSessionContext(),
		ratings:    make(map[int]int),
		denyPolicy: policy,
		delay:      opts.ReservationDelay,
		notifier:   notifier,
		now:        time.Now,
	}
}

// SelectRole はログイン前の役割選択を記録します
func (a *App) SelectRole(ctx context.Context, role model.Role) {
	_, seg := xray.BeginSubsegment(ctx, "App.SelectRole")
	defer seg.Close(nil)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.SelectRole(role)
}

// Login はセッションを開始します
func (a *App) Login(ctx context.Context, username, password string, role model.Role) (s model.Session, err error) {
	_, seg := xray.BeginSubsegment(ctx, "App.Login")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	s, err = a.session.Login(username, password, role)
	if err != nil {
		return model.Session{}, err
	}
	log.Printf("User %s logged in as %s", s.Username, s.Role)
	return s, nil
}

// Logout はセッションを破棄して未ログイン状態に戻します
func (a *App) Logout(ctx context.Context) {
	_, seg := xray.BeginSubsegment(ctx, "App.Logout")
	defer seg.Close(nil)

	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.session.Current(); ok {
		log.Printf("User %s logged out", s.Username)
	}
	a.session.Logout()
}

// AddProperty はオーナーとして物件を登録します
func (a *App) AddProperty(ctx context.Context, in model.PropertyInput) (p model.Property, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.AddProperty")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	sess, err := a.session.require(model.RoleOwner)
	if err == nil {
		p, err = a.registry.Add(in)
	}
	a.mu.Unlock()

	if err != nil {
		return model.Property{}, a.fail(ctx, sess, "add property", err)
	}

	a.notify(ctx, model.Notification{
		Type:       model.NotificationTypePropertyAdded,
		UserID:     sess.Username,
		Message:    "Property added successfully!",
		PropertyID: p.ID,
	})
	return p, nil
}

// Reserve は学生として物件を予約します
// 予約は即座に承認待ちとして台帳に追加され、確定メッセージは遅延後に通知されます
// 遅延中の確定処理はキャンセルできません
func (a *App) Reserve(ctx context.Context, propertyID int) (b model.Booking, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.Reserve")
	defer func() { seg.Close(err) }()

	var (
		prior      int
		prev, done chan struct{}
	)
	a.mu.Lock()
	sess, err := a.session.require(model.RoleStudent)
	if err == nil {
		_, err = a.registry.Get(propertyID)
	}
	if err == nil {
		prior = a.ledger.ReservationCount()
		b = a.ledger.Reserve(propertyID)
		a.inflight++
		a.pending.Add(1)
		prev, done = a.lastConfirm, make(chan struct{})
		a.lastConfirm = done
	}
	a.mu.Unlock()

	if err != nil {
		return model.Booking{}, a.fail(ctx, sess, "reserve", err)
	}

	// 確定処理は予約順に実行する。タイマーの発火順は保証されない
	confirm := func() {
		defer a.pending.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		fee := a.fees.ReservationFeeHint(prior)

		a.mu.Lock()
		a.reservationFeeHint = fee
		a.inflight--
		a.mu.Unlock()

		a.notify(context.WithoutCancel(ctx), model.Notification{
			Type:       model.NotificationTypeReservation,
			UserID:     sess.Username,
			Message:    "Room reserved! Please wait for owner approval.",
			Fee:        fee,
			BookingID:  b.ID,
			PropertyID: b.PropertyID,
		})
	}

	if a.delay <= 0 {
		confirm()
	} else {
		time.AfterFunc(a.delay, confirm)
	}

	return b, nil
}

// Approve はオーナーとして予約を承認します
func (a *App) Approve(ctx context.Context, bookingID int) (b model.Booking, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.Approve")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	sess, err := a.session.require(model.RoleOwner)
	if err == nil {
		b, err = a.ledger.Approve(bookingID)
	}
	a.mu.Unlock()

	if err != nil {
		return model.Booking{}, a.fail(ctx, sess, "approve", err)
	}

	a.notify(ctx, model.Notification{
		Type:       model.NotificationTypeBookingApproved,
		UserID:     sess.Username,
		Message:    "Booking approved!",
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
	})
	return b, nil
}

// Deny はオーナーとして予約を否認し、台帳から削除します
// 存在しない予約の否認はエラーにせず removed=false を返します
func (a *App) Deny(ctx context.Context, bookingID int) (removed bool, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.Deny")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	sess, err := a.session.require(model.RoleOwner)
	if err == nil {
		removed, err = a.ledger.Deny(bookingID, a.denyPolicy)
	}
	a.mu.Unlock()

	if err != nil {
		return false, a.fail(ctx, sess, "deny", err)
	}

	a.notify(ctx, model.Notification{
		Type:      model.NotificationTypeBookingDenied,
		UserID:    sess.Username,
		Message:   "Booking denied!",
		BookingID: bookingID,
	})
	return removed, nil
}

// CheckIn は学生として承認済みの予約にチェックインします
// 手数料は既存のチェックイン記録数から計算されます
func (a *App) CheckIn(ctx context.Context, bookingID int) (rec model.CheckInRecord, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.CheckIn")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	sess, err := a.session.require(model.RoleStudent)
	if err == nil {
		fee := a.fees.CheckInFee(a.ledger.CheckInCount())
		rec, err = a.ledger.CheckIn(bookingID, fee)
		if err == nil {
			a.checkInFee = rec.Fee
		}
	}
	a.mu.Unlock()

	if err != nil {
		return model.CheckInRecord{}, a.fail(ctx, sess, "check in", err)
	}

	if seg != nil {
		if err := seg.AddMetadata("fee", rec.Fee); err != nil {
			log.Printf("Failed to add fee metadata: %v", err)
		}
	}

	a.notify(ctx, model.Notification{
		Type:       model.NotificationTypeCheckIn,
		UserID:     sess.Username,
		Message:    fmt.Sprintf("Checked in successfully! Your agent fee is $%d", rec.Fee),
		Fee:        rec.Fee,
		BookingID:  rec.BookingID,
		PropertyID: rec.PropertyID,
	})
	return rec, nil
}

// RateProperty は学生として物件を1〜5で評価します
// 同じ物件への評価は最後のものが残ります
func (a *App) RateProperty(ctx context.Context, propertyID, stars int) (err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "App.RateProperty")
	defer func() { seg.Close(err) }()

	a.mu.Lock()
	sess, err := a.session.require(model.RoleStudent)
	if err == nil {
		_, err = a.registry.Get(propertyID)
	}
	if err == nil && (stars < 1 || stars > 5) {
		err = fmt.Errorf("%w: rating must be between 1 and 5, got %d", model.ErrValidation, stars)
	}
	if err == nil {
		a.ratings[propertyID] = stars
	}
	a.mu.Unlock()

	if err != nil {
		return a.fail(ctx, sess, "rate", err)
	}
	return nil
}

// Snapshot は現在の状態のコピーを返します
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	bookingIDs := a.ledger.BookingIDsByProperty()
	properties := a.registry.List()
	for i := range properties {
		properties[i].BookingIDs = bookingIDs[properties[i].ID]
	}

	ratings := make(map[int]int, len(a.ratings))
	for k, v := range a.ratings {
		ratings[k] = v
	}

	snap := Snapshot{
		SelectedRole:       a.session.SelectedRole(),
		Properties:         properties,
		Bookings:           a.ledger.List(),
		PendingBookings:    a.ledger.Pending(),
		AwaitingCheckIn:    a.ledger.AwaitingCheckIn(),
		CheckedIn:          a.ledger.CheckedIn(),
		Ratings:            ratings,
		ReservationFeeHint: a.reservationFeeHint,
		CheckInFee:         a.checkInFee,
		Loading:            a.inflight > 0,
	}
	if s, ok := a.session.Current(); ok {
		snap.Session = &s
	}
	return snap
}

// Wait は遅延中の予約確定処理が全て終わるまで待機します
func (a *App) Wait() {
	a.pending.Wait()
}

// fail は失敗を通知先へ報告してエラーを返します
// 検証エラーは利用者への通知のみで、システムエラーとしてはログに出しません
func (a *App) fail(ctx context.Context, sess model.Session, op string, err error) error {
	kind := model.ErrorKind(err)
	if kind != "validation" {
		log.Printf("Failed to %s: %v", op, err)
	}

	a.notify(ctx, model.Notification{
		Type:      model.NotificationTypeError,
		UserID:    sess.Username,
		Message:   err.Error(),
		ErrorKind: kind,
	})
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (a *App) notify(ctx context.Context, n model.Notification) {
	n.CreatedAt = a.now()
	a.notifier.Notify(ctx, n)
}
