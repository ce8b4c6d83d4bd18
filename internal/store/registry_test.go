package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"saldo/internal/auth"
	"saldo/internal/log"
)

func TestRegistryCachesStores(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	r := NewRegistry(be, 10, time.Minute, log.Discard())

	a, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := r.Get(ctx, "u1")
	if a != b {
		t.Fatalf("expected the same store for the same owner")
	}
	if n := be.loadCount(); n != 1 {
		t.Fatalf("loads = %d, want 1", n)
	}

	r.HandleSessionEvent(auth.Event{Type: auth.EventSignedOut, UserID: "u1"})
	if r.Size() != 0 {
		t.Fatalf("sign-out should drop the store")
	}
	c, _ := r.Get(ctx, "u1")
	if c == a {
		t.Fatalf("expected a fresh store after drop")
	}
}

func TestRegistryCollapsesConcurrentLoads(t *testing.T) {
	be := newFakeBackend()
	r := NewRegistry(be, 10, time.Minute, log.Discard())

	var wg sync.WaitGroup
	stores := make([]*Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := r.Get(context.Background(), "u1")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			stores[i] = st
		}(i)
	}
	wg.Wait()
	for _, st := range stores[1:] {
		if st != stores[0] {
			t.Fatalf("concurrent Gets returned different stores")
		}
	}
	if r.Size() != 1 {
		t.Fatalf("Size() = %d", r.Size())
	}
}

func TestRegistryReloadsDriftedStore(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	r := NewRegistry(be, 10, time.Minute, log.Discard())
	st, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	cctx, cancel := context.WithCancel(ctx)
	release := be.holdWrite(1)
	done := make(chan error, 1)
	go func() {
		_, err := st.AddExpense(cctx, expense("Late", 500, "Food", 2024, 3, 1))
		done <- err
	}()
	<-be.entered
	cancel()
	close(release)
	<-done

	loadsBefore := be.loadCount()
	again, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again != st || be.loadCount() != loadsBefore+1 {
		t.Fatalf("expected an in-place reload")
	}
	if len(again.Snapshot().Expenses) != 1 {
		t.Fatalf("reload did not pick up the confirmed write")
	}
}

func TestRegistryCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	be := newFakeBackend()
	r := NewRegistry(be, 10, time.Minute, log.Discard())

	release := be.holdList()
	cctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Get(cctx, "u1")
		first <- err
	}()
	<-be.listEntered

	type result struct {
		st  *Store
		err error
	}
	second := make(chan result, 1)
	go func() {
		st, err := r.Get(context.Background(), "u1")
		second <- result{st, err}
	}()

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller error = %v, want context.Canceled", err)
	}
	close(release)

	res := <-second
	if res.err != nil || res.st == nil {
		t.Fatalf("second caller = %v, %v; want the loaded store", res.st, res.err)
	}
	if r.Size() != 1 || be.loadCount() != 1 {
		t.Fatalf("size = %d, loads = %d; want one cached store from one load", r.Size(), be.loadCount())
	}
}

func TestRegistryCollapsesConcurrentReloads(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	r := NewRegistry(be, 10, time.Minute, log.Discard())
	st, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	cctx, cancel := context.WithCancel(ctx)
	hold := be.holdWrite(1)
	done := make(chan error, 1)
	go func() {
		_, err := st.AddExpense(cctx, expense("Late", 500, "Food", 2024, 3, 1))
		done <- err
	}()
	<-be.entered
	cancel()
	close(hold)
	<-done
	if !st.NeedsReload() {
		t.Fatal("expected the store to need a reload")
	}

	loadsBefore := be.loadCount()
	release := be.holdList()
	var wg sync.WaitGroup
	stores := make([]*Store, 6)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := r.Get(ctx, "u1")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			stores[i] = got
		}(i)
	}
	<-be.listEntered
	close(release)
	wg.Wait()

	for _, got := range stores {
		if got != st {
			t.Fatalf("reload should keep the cached store")
		}
	}
	if n := be.loadCount() - loadsBefore; n != 1 {
		t.Fatalf("reloads = %d, want 1", n)
	}
	if len(st.Snapshot().Expenses) != 1 || st.NeedsReload() {
		t.Fatalf("reload did not adopt the confirmed write")
	}
}
