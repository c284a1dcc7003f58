package session

import (
	"sync"
	"testing"
	"time"
)

func TestLedgerCreate_NewestFirst(t *testing.T) {
	l := NewLedger()

	first := l.Create(CreateOpts{})
	second := l.Create(CreateOpts{File: "/tmp/take2.wav"})

	recs := l.List()
	if len(recs) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(recs))
	}
	if recs[0].ID != second.ID {
		t.Errorf("List()[0].ID = %q, want newest %q", recs[0].ID, second.ID)
	}
	if recs[1].ID != first.ID {
		t.Errorf("List()[1].ID = %q, want oldest %q", recs[1].ID, first.ID)
	}
	if recs[0].File != "/tmp/take2.wav" {
		t.Errorf("File = %q, want %q", recs[0].File, "/tmp/take2.wav")
	}
}

func TestLedgerCreate_Defaults(t *testing.T) {
	l := NewLedger()

	before := time.Now()
	rec := l.Create(CreateOpts{})
	after := time.Now()

	if rec.ID == "" {
		t.Error("expected a generated ID")
	}
	if rec.Status != StatusRecording {
		t.Errorf("Status = %q, want %q", rec.Status, StatusRecording)
	}
	if rec.File != "" {
		t.Errorf("File = %q, want empty", rec.File)
	}
	if rec.PID != 0 {
		t.Errorf("PID = %d, want 0", rec.PID)
	}
	if rec.StartedAt.Before(before) || rec.StartedAt.After(after) {
		t.Errorf("StartedAt = %v, want between %v and %v", rec.StartedAt, before, after)
	}

	other := l.Create(CreateOpts{})
	if other.ID == rec.ID {
		t.Error("expected unique IDs per record")
	}
}

func TestLedgerFinalize(t *testing.T) {
	l := NewLedger()
	rec := l.Create(CreateOpts{})

	got, ok := l.Finalize(rec.ID, FinalizeOpts{File: "/tmp/out.wav", PID: 4242})
	if !ok {
		t.Fatal("Finalize returned ok=false for a known id")
	}
	if got.Status != StatusDone {
		t.Errorf("Status = %q, want %q", got.Status, StatusDone)
	}
	if got.File != "/tmp/out.wav" {
		t.Errorf("File = %q, want %q", got.File, "/tmp/out.wav")
	}
	if got.PID != 4242 {
		t.Errorf("PID = %d, want 4242", got.PID)
	}
	if got.ID != rec.ID || !got.StartedAt.Equal(rec.StartedAt) {
		t.Error("Finalize must not change ID or StartedAt")
	}

	stored := l.List()[0]
	if stored != got {
		t.Errorf("stored record %+v differs from returned %+v", stored, got)
	}
}

func TestLedgerFinalize_EmptyFileKeepsExisting(t *testing.T) {
	l := NewLedger()
	rec := l.Create(CreateOpts{File: "/tmp/planned.wav"})

	got, ok := l.Finalize(rec.ID, FinalizeOpts{})
	if !ok {
		t.Fatal("Finalize returned ok=false")
	}
	if got.File != "/tmp/planned.wav" {
		t.Errorf("File = %q, want the planned path kept", got.File)
	}
	if got.Status != StatusDone {
		t.Errorf("Status = %q, want %q", got.Status, StatusDone)
	}
}

func TestLedgerAbort_ClearsHint(t *testing.T) {
	l := NewLedger()
	rec := l.Create(CreateOpts{File: "/tmp/planned.wav"})

	var seen []Record
	unsub := l.Subscribe(func(r Record) { seen = append(seen, r) })
	defer unsub()

	got, ok := l.Abort(rec.ID)
	if !ok {
		t.Fatal("Abort returned ok=false for a known id")
	}
	if got.Status != StatusDone {
		t.Errorf("Status = %q, want %q", got.Status, StatusDone)
	}
	if got.File != "" {
		t.Errorf("File = %q, want the unconfirmed hint cleared", got.File)
	}
	if got.ID != rec.ID || !got.StartedAt.Equal(rec.StartedAt) {
		t.Error("Abort must not change ID or StartedAt")
	}
	if len(seen) != 1 || seen[0] != got {
		t.Errorf("subscribers saw %+v, want the aborted record once", seen)
	}
	if stored := l.List()[0]; stored != got {
		t.Errorf("stored record %+v differs from returned %+v", stored, got)
	}
}

func TestLedgerAbort_UnknownIDIsNoOp(t *testing.T) {
	l := NewLedger()
	l.Create(CreateOpts{})

	notified := false
	unsub := l.Subscribe(func(Record) { notified = true })
	defer unsub()

	if _, ok := l.Abort("no-such-id"); ok {
		t.Error("expected ok=false for unknown id")
	}
	if notified {
		t.Error("no-op abort must not notify subscribers")
	}
	if rec := l.List()[0]; rec.Status != StatusRecording {
		t.Errorf("existing record touched: status = %q", rec.Status)
	}
}

func TestLedgerFinalize_UnknownIDIsNoOp(t *testing.T) {
	l := NewLedger()
	l.Create(CreateOpts{})

	notified := false
	unsub := l.Subscribe(func(Record) { notified = true })
	defer unsub()

	_, ok := l.Finalize("no-such-id", FinalizeOpts{File: "/tmp/x.wav"})
	if ok {
		t.Error("expected ok=false for unknown id")
	}
	if notified {
		t.Error("no-op finalize must not notify subscribers")
	}
	if rec := l.List()[0]; rec.Status != StatusRecording {
		t.Errorf("existing record touched: status = %q", rec.Status)
	}
}

func TestLedgerList_ReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Create(CreateOpts{})

	recs := l.List()
	recs[0].File = "/tmp/mutated.wav"
	recs[0].Status = StatusDone

	fresh := l.List()[0]
	if fresh.File != "" || fresh.Status != StatusRecording {
		t.Errorf("mutating List() result leaked into the ledger: %+v", fresh)
	}
}

func TestLedgerLatest(t *testing.T) {
	l := NewLedger()

	if _, ok := l.Latest(); ok {
		t.Error("Latest() on empty ledger should return ok=false")
	}

	l.Create(CreateOpts{})
	want := l.Create(CreateOpts{})

	got, ok := l.Latest()
	if !ok {
		t.Fatal("Latest() returned ok=false")
	}
	if got.ID != want.ID {
		t.Errorf("Latest().ID = %q, want %q", got.ID, want.ID)
	}
}

func TestLedgerSubscribe_SeesMutations(t *testing.T) {
	l := NewLedger()

	var mu sync.Mutex
	var seen []Record
	unsub := l.Subscribe(func(rec Record) {
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
	})
	defer unsub()

	rec := l.Create(CreateOpts{})
	l.Finalize(rec.ID, FinalizeOpts{File: "/tmp/x.wav"})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if seen[0].Status != StatusRecording {
		t.Errorf("first notification status = %q, want %q", seen[0].Status, StatusRecording)
	}
	if seen[1].Status != StatusDone || seen[1].File != "/tmp/x.wav" {
		t.Errorf("second notification = %+v, want finalized record", seen[1])
	}
}

func TestLedgerSubscribe_CallbackSeesAppliedState(t *testing.T) {
	l := NewLedger()

	var listedStatus Status
	unsub := l.Subscribe(func(rec Record) {
		// The mutation must be visible to reads made from the callback.
		for _, r := range l.List() {
			if r.ID == rec.ID {
				listedStatus = r.Status
			}
		}
	})
	defer unsub()

	rec := l.Create(CreateOpts{})
	if listedStatus != StatusRecording {
		t.Errorf("callback saw status %q after create, want %q", listedStatus, StatusRecording)
	}

	l.Finalize(rec.ID, FinalizeOpts{})
	if listedStatus != StatusDone {
		t.Errorf("callback saw status %q after finalize, want %q", listedStatus, StatusDone)
	}
}

func TestLedgerUnsubscribe_OthersUnaffected(t *testing.T) {
	l := NewLedger()

	var aCount, bCount int
	unsubA := l.Subscribe(func(Record) { aCount++ })
	unsubB := l.Subscribe(func(Record) { bCount++ })
	defer unsubB()

	l.Create(CreateOpts{})
	unsubA()
	l.Create(CreateOpts{})

	if aCount != 1 {
		t.Errorf("removed subscriber saw %d events, want 1", aCount)
	}
	if bCount != 2 {
		t.Errorf("remaining subscriber saw %d events, want 2", bCount)
	}

	// Removing twice is harmless.
	unsubA()
	l.Create(CreateOpts{})
	if aCount != 1 {
		t.Errorf("re-removed subscriber saw %d events, want 1", aCount)
	}
}

func TestLedgerConcurrentReaders(t *testing.T) {
	l := NewLedger()
	rec := l.Create(CreateOpts{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.List()
				l.Latest()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			l.Finalize(rec.ID, FinalizeOpts{PID: j + 1})
		}
	}()
	wg.Wait()
}
