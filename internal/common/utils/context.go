package utils

import (
	"context"
	"fmt"
	"time"
)

// RunWithTimeout は指定されたタイムアウト時間内で処理を実行する
// タイムアウトや親コンテキストのキャンセルではfnの完了を待たずにエラーを返す
// fn自体は途中で止めないため、fnはctxを見て自分で終了する必要がある
func RunWithTimeout(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %v: %w", name, timeout, ctx.Err())
		}
		return fmt.Errorf("%s canceled: %w", name, ctx.Err())
	}
}
