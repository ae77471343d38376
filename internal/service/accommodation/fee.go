package accommodation

const (
	defaultFirstFee  = 10
	defaultRepeatFee = 5
)

// FeeCalculator はエージェント手数料を計算します
// 初回だけ高く、2回目以降は一律の料金になります
type FeeCalculator struct {
	FirstFee  int
	RepeatFee int
}

// NewFeeCalculator は新しいFeeCalculatorを作成します
// 0以下の値はデフォルト値(10/5)に置き換えます
func NewFeeCalculator(first, repeat int) FeeCalculator {
	if first <= 0 {
		first = defaultFirstFee
	}
	if repeat <= 0 {
		repeat = defaultRepeatFee
	}
	return FeeCalculator{FirstFee: first, RepeatFee: repeat}
}

// CheckInFee は既存のチェックイン記録数から今回の手数料を返します
// 物件の価格や滞在期間には依存しません
func (f FeeCalculator) CheckInFee(priorCheckIns int) int {
	return f.tiered(priorCheckIns)
}

// ReservationFeeHint は予約操作時に表示する手数料の目安です
// チェックイン手数料とは別のカウンタで計算されるため、両者は一致しないことがあります
func (f FeeCalculator) ReservationFeeHint(priorReservations int) int {
	return f.tiered(priorReservations)
}

func (f FeeCalculator) tiered(prior int) int {
	if prior == 0 {
		return f.FirstFee
	}
	return f.RepeatFee
}
