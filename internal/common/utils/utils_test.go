package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunWithTimeout(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		timeout time.Duration
		fn      func(context.Context) error
		wantErr error
	}{
		{
			name:    "正常終了",
			timeout: time.Second,
			fn:      func(context.Context) error { return nil },
			wantErr: nil,
		},
		{
			name:    "処理のエラーをそのまま返す",
			timeout: time.Second,
			fn:      func(context.Context) error { return errBoom },
			wantErr: errBoom,
		},
		{
			name:    "タイムアウト",
			timeout: 20 * time.Millisecond,
			fn: func(ctx context.Context) error {
				<-ctx.Done()
				time.Sleep(50 * time.Millisecond)
				return nil
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunWithTimeout(context.Background(), "test", tt.timeout, tt.fn)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RunWithTimeout() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunWithTimeout_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunWithTimeout(ctx, "test", time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithTimeout() error = %v, want context.Canceled", err)
	}
}

func TestGetStackWithError(t *testing.T) {
	if GetStackWithError(nil) != nil {
		t.Error("GetStackWithError(nil) should be nil")
	}

	base := errors.New("base")
	err := GetStackWithError(base)
	if !errors.Is(err, base) {
		t.Errorf("GetStackWithError() does not wrap the original error")
	}
	if !strings.Contains(err.Error(), "Stack trace:") {
		t.Errorf("GetStackWithError() = %q, want stack trace", err.Error())
	}

	again := GetStackWithError(err)
	if strings.Count(again.Error(), "Stack trace:") != 1 {
		t.Error("GetStackWithError() added a second stack trace")
	}
}
