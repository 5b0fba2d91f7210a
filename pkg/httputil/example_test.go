package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/refgraph/refgraph/pkg/httputil"
)

func ExampleBackoff_Do() {
	b := httputil.Backoff{
		Attempts: 3,
		Delay:    time.Millisecond,
		OnRetry: func(attempt int, err error, _ time.Duration) {
			fmt.Printf("attempt %d: %v\n", attempt, err)
		},
	}
	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("connection reset"))
		}
		return nil
	})
	fmt.Println("calls:", calls, "error:", err)
	// Output:
	// attempt 1: connection reset
	// attempt 2: connection reset
	// calls: 3 error: <nil>
}
