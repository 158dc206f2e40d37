package watch

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestDebounceCoalesces(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var (
		mu    sync.Mutex
		fires [][]string
	)
	d.OnFire(func(paths []string) {
		mu.Lock()
		fires = append(fires, paths)
		mu.Unlock()
	})

	d.Push("b.tex")
	d.Push("a.tex")
	d.Push("a.tex")
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fires) != 1 {
		t.Fatalf("expected 1 fire, got %d", len(fires))
	}
	if want := []string{"a.tex", "b.tex"}; !reflect.DeepEqual(fires[0], want) {
		t.Errorf("got %v, want %v", fires[0], want)
	}
}

func TestDebounceStop(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.OnFire(func([]string) { fired <- struct{}{} })

	d.Push("a.tex")
	d.Stop()
	select {
	case <-fired:
		t.Fatal("stopped debouncer fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebounceIgnoresBlank(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.OnFire(func([]string) { fired <- struct{}{} })

	d.Push("  ")
	select {
	case <-fired:
		t.Fatal("blank path fired")
	case <-time.After(100 * time.Millisecond):
	}
}
