package pcsc

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gregLibert/mifare-pcsc/pkg/reader"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		known       []string
		listed      []string
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:      "first listing",
			listed:    []string{"OMNIKEY 5422", "ACS ACR122U"},
			wantAdded: []string{"ACS ACR122U", "OMNIKEY 5422"},
		},
		{
			name:   "unchanged",
			known:  []string{"ACS ACR122U"},
			listed: []string{"ACS ACR122U"},
		},
		{
			name:        "reader unplugged",
			known:       []string{"ACS ACR122U", "OMNIKEY 5422"},
			listed:      []string{"OMNIKEY 5422"},
			wantRemoved: []string{"ACS ACR122U"},
		},
		{
			name:        "reader swapped",
			known:       []string{"ACS ACR122U"},
			listed:      []string{"SCM SCL3711"},
			wantAdded:   []string{"SCM SCL3711"},
			wantRemoved: []string{"ACS ACR122U"},
		},
		{
			name:        "all readers gone",
			known:       []string{"ACS ACR122U", "SCM SCL3711"},
			wantRemoved: []string{"ACS ACR122U", "SCM SCL3711"},
		},
		{
			name:      "duplicate names listed once",
			listed:    []string{"ACS ACR122U", "ACS ACR122U"},
			wantAdded: []string{"ACS ACR122U"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			added, removed := diff(tc.known, tc.listed)
			if d := cmp.Diff(tc.wantAdded, added, cmpopts.EquateEmpty()); d != "" {
				t.Errorf("added mismatch (-want +got):\n%s", d)
			}
			if d := cmp.Diff(tc.wantRemoved, removed, cmpopts.EquateEmpty()); d != "" {
				t.Errorf("removed mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestHandle_NotConnected(t *testing.T) {
	h := newHandle(nil, "ACS ACR122U")

	if h.Name() != "ACS ACR122U" {
		t.Errorf("Name() = %q", h.Name())
	}
	if _, err := h.Transmit([]byte{0xFF, 0xCA, 0x00, 0x00, 0x00}, 18, 2); !errors.Is(err, errNotConnected) {
		t.Errorf("Transmit() error = %v, want %v", err, errNotConnected)
	}
	if _, err := h.ATR(); !errors.Is(err, errNotConnected) {
		t.Errorf("ATR() error = %v, want %v", err, errNotConnected)
	}
	if err := h.Disconnect(reader.LeaveCard); err != nil {
		t.Errorf("Disconnect() without card = %v, want nil", err)
	}
}

func TestHandle_Events(t *testing.T) {
	h := newHandle(nil, "ACS ACR122U")
	ctx := context.Background()

	want := []reader.Event{
		{State: reader.StateEmpty},
		{State: reader.StatePresent | reader.StateChanged},
		{Err: errStateUnknown},
	}
	for _, ev := range want {
		if err := h.post(ctx, ev); err != nil {
			t.Fatalf("post(%v) = %v", ev, err)
		}
	}
	h.detach()
	h.detach()

	var got []reader.Event
	for ev := range h.Events() {
		got = append(got, ev)
	}
	if d := cmp.Diff(want, got, cmpopts.EquateErrors()); d != "" {
		t.Errorf("events mismatch (-want +got):\n%s", d)
	}
}

func TestHandle_PostBlocksUntilCancelled(t *testing.T) {
	h := newHandle(nil, "ACS ACR122U")
	for i := 0; i < eventBuffer; i++ {
		if err := h.post(context.Background(), reader.Event{State: reader.StateEmpty}); err != nil {
			t.Fatalf("post #%d = %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.post(ctx, reader.Event{State: reader.StatePresent}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("post on full queue = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestOptions(t *testing.T) {
	l := log.New(nil, "pcsc ", 0)
	tr := &Transport{logger: log.Default(), poll: DefaultPollInterval}
	for _, opt := range []Option{WithLogger(l), WithPollInterval(250 * time.Millisecond), WithPollInterval(0), WithLogger(nil)} {
		opt(tr)
	}

	if tr.logger != l {
		t.Error("WithLogger did not apply")
	}
	if tr.poll != 250*time.Millisecond {
		t.Errorf("poll = %s, want 250ms", tr.poll)
	}
}
