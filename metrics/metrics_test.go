package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	orig := backend()
	t.Cleanup(func() { SetBackend(orig) })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordPhase(t *testing.T) {
	fb := install(t)

	RecordPhase("scatter", nil, 2*time.Second)
	RecordPhase("merge", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("got %d counter and %d histogram calls, want 2 and 2", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != PhaseTotal || c.delta != 1 || c.labels["phase"] != "scatter" || c.labels["status"] != "success" {
		t.Errorf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.labels["phase"] != "merge" || c.labels["status"] != "failure" {
		t.Errorf("counter[1] = %#v", c)
	}
	if h := fb.histograms[0]; h.name != PhaseSeconds || h.value < 1.999 || h.value > 2.001 {
		t.Errorf("hist[0] = %#v, want ~2s", h)
	}
	if h := fb.histograms[1]; h.value < 1.499 || h.value > 1.501 {
		t.Errorf("hist[1] = %#v, want ~1.5s", h)
	}
}

func TestRecordValues(t *testing.T) {
	fb := install(t)

	RecordValues("sent", 10)
	RecordValues("received", 0)
	RecordValues("received", 7)

	if len(fb.counters) != 2 {
		t.Fatalf("got %d counter calls, want 2", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != ValuesTotal || c.delta != 10 || c.labels["direction"] != "sent" {
		t.Errorf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.delta != 7 || c.labels["direction"] != "received" {
		t.Errorf("counter[1] = %#v", c)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if fb.flushes != 1 {
		t.Errorf("got %d flushes, want 1", fb.flushes)
	}
	SetBackend(nil)
	if backend() != Backend(fb) {
		t.Error("SetBackend(nil) replaced the backend")
	}
}

func TestDefaultBackendIsNop(t *testing.T) {
	if _, ok := backend().(nopBackend); !ok {
		t.Skip("another backend is installed")
	}
	RecordPhase("validate", nil, time.Millisecond)
	if err := Flush(); err != nil {
		t.Error(err)
	}
}
