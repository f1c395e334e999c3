package jobs_test

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"hookreel/internal/jobs"
	"hookreel/internal/testsupport"
)

func TestCompositionLockIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", "job-1")
	if err != nil {
		t.Fatalf("AcquireCompositionLock: %v", err)
	}
	if _, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", "job-1"); !errors.Is(err, jobs.ErrJobLocked) {
		t.Fatalf("expected ErrJobLocked, got %v", err)
	}
	other, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-2", "job-1")
	if err != nil {
		t.Fatalf("lock on a different composition: %v", err)
	}
	_ = other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", "job-1")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = again.Release()
}

func TestFailedJobsOfOneCompositionShareALock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", "failed-a")
	if err != nil {
		t.Fatalf("AcquireCompositionLock: %v", err)
	}
	defer held.Release()
	if _, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", "failed-b"); !errors.Is(err, jobs.ErrJobLocked) {
		t.Fatalf("expected a second job of the same composition to be refused, got %v", err)
	}
}

func TestCompositionLockBoundsConcurrentResubmits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var (
		active  atomic.Int32
		peak    atomic.Int32
		refused atomic.Int32
		wg      sync.WaitGroup
		start   = make(chan struct{})
		release = make(chan struct{})
	)
	for _, jobID := range []string{"failed-a", "failed-b", "failed-c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			lock, err := jobs.AcquireCompositionLock(cfg.LockDir(), "comp-1", jobID)
			if err != nil {
				if !errors.Is(err, jobs.ErrJobLocked) {
					t.Errorf("unexpected lock error: %v", err)
				}
				refused.Add(1)
				return
			}
			defer lock.Release()
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
		}()
	}
	close(start)
	for refused.Load() < 2 {
		if peak.Load() > 1 {
			break
		}
		runtime.Gosched()
	}
	close(release)
	wg.Wait()
	if peak.Load() != 1 {
		t.Fatalf("expected one concurrent run per composition, got %d", peak.Load())
	}
	if refused.Load() != 2 {
		t.Fatalf("expected two refused resubmits, got %d", refused.Load())
	}
}

func TestLockKeyFallsBackToJobID(t *testing.T) {
	if got := jobs.LockKey(" ", "job-9"); got != "job-9" {
		t.Fatalf("LockKey fallback = %q", got)
	}
	if got := jobs.LockKey("comp-1", "job-9"); got != "comp-1" {
		t.Fatalf("LockKey = %q", got)
	}
	cfg := testsupport.NewConfig(t)
	lock, err := jobs.AcquireCompositionLock(cfg.LockDir(), "", "job-9")
	if err != nil {
		t.Fatalf("AcquireCompositionLock without composition: %v", err)
	}
	defer lock.Release()
	if _, err := jobs.AcquireCompositionLock(cfg.LockDir(), "", "job-9"); !errors.Is(err, jobs.ErrJobLocked) {
		t.Fatalf("expected job-keyed lock to be exclusive, got %v", err)
	}
}

func TestCompositionLockRejectsBadKeys(t *testing.T) {
	if _, err := jobs.AcquireCompositionLock(t.TempDir(), " ", " "); err == nil {
		t.Fatal("expected error for blank ids")
	}
	if _, err := jobs.AcquireCompositionLock(t.TempDir(), "../escape", "job-1"); err == nil {
		t.Fatal("expected error for path-like key")
	}
}
