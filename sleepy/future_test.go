package sleepy

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/sleepy/errors"
)

func TestGoNilFunction(t *testing.T) {
	f, err := Go[int](context.Background(), nil)
	if !errors.HasCode(err, errors.ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if f != nil {
		t.Error("expected no future")
	}
}

func TestFutureWait(t *testing.T) {
	f, err := Go(context.Background(), func(context.Context) (string, error) { return "done", nil })
	if err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	got, err := f.Wait(context.Background())
	if err != nil || got != "done" {
		t.Errorf("Wait() = %q, %v", got, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done should be closed after Wait returns")
	}
}

func TestFutureWaitError(t *testing.T) {
	boom := stderrors.New("boom")
	f, _ := Go(context.Background(), func(context.Context) (int, error) { return 0, boom })
	if _, err := f.Wait(context.Background()); !stderrors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestFutureWaitTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f, _ := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Error("expected deadline as cause")
	}

	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	if _, err := f.Wait(cctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFutureThen(t *testing.T) {
	f, _ := Go(context.Background(), func(context.Context) (int, error) { return 42, nil })

	if err := f.Then(nil); !errors.HasCode(err, errors.ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT for nil callback, got %v", err)
	}

	got := make(chan int, 1)
	if err := f.Then(func(v int, err error) { got <- v }); err != nil {
		t.Fatalf("Then failed: %v", err)
	}
	select {
	case v := <-got:
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}
}

func TestFuturesCompleteOutOfCallOrder(t *testing.T) {
	slowRelease := make(chan struct{})
	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(2)

	slow, _ := Go(context.Background(), func(context.Context) (string, error) {
		<-slowRelease
		return "slow", nil
	})
	fast, _ := Go(context.Background(), func(context.Context) (string, error) { return "fast", nil })

	record := func(v string, _ error) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
		wg.Done()
	}
	_ = slow.Then(record)
	_ = fast.Then(func(v string, err error) {
		record(v, err)
		close(slowRelease)
	})
	wg.Wait()

	if len(order) != 2 || order[0] != "fast" || order[1] != "slow" {
		t.Errorf("expected completion order [fast slow], got %v", order)
	}
}

func TestFutureWithClient(t *testing.T) {
	c, _ := newTestClient(t)
	f, err := Go(context.Background(), func(ctx context.Context) (*Status, error) {
		return c.Hello(ctx)
	})
	if err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	st, err := f.Wait(context.Background())
	if err != nil || !st.IsOK() {
		t.Errorf("Wait() = %+v, %v", st, err)
	}
}
