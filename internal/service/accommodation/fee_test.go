package accommodation

import "testing"

func TestFeeCalculator(t *testing.T) {
	tests := []struct {
		name  string
		calc  FeeCalculator
		prior int
		want  int
	}{
		{name: "初回チェックイン", calc: NewFeeCalculator(0, 0), prior: 0, want: 10},
		{name: "2回目のチェックイン", calc: NewFeeCalculator(0, 0), prior: 1, want: 5},
		{name: "10回目のチェックイン", calc: NewFeeCalculator(0, 0), prior: 9, want: 5},
		{name: "設定した初回料金", calc: NewFeeCalculator(20, 8), prior: 0, want: 20},
		{name: "設定した2回目以降の料金", calc: NewFeeCalculator(20, 8), prior: 3, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.calc.CheckInFee(tt.prior); got != tt.want {
				t.Errorf("CheckInFee(%d) = %d, want %d", tt.prior, got, tt.want)
			}
			if got := tt.calc.ReservationFeeHint(tt.prior); got != tt.want {
				t.Errorf("ReservationFeeHint(%d) = %d, want %d", tt.prior, got, tt.want)
			}
		})
	}
}
