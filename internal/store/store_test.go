package store

import (
	"errors"
	"testing"
	"time"

	"tornadogo-backend/internal/models"
)

func TestUpdatePersistsDirtyCollections(t *testing.T) {
	adapter := NewMemoryAdapter()
	st, err := New(adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = st.Update(func(tx *Tx) error {
		tx.Data.Rides = append(tx.Data.Rides, models.Ride{ID: "r1", Status: models.StatusRequested})
		tx.Mark(KeyRides)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, err := adapter.Load(KeyRides)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if raw == nil {
		t.Fatal("rides snapshot not saved")
	}

	// Unmarked collections are not written.
	raw, _ = adapter.Load(KeyUsers)
	if raw != nil {
		t.Error("users snapshot saved without Mark")
	}
}

func TestUpdateErrorSkipsSave(t *testing.T) {
	adapter := NewMemoryAdapter()
	st, _ := New(adapter)

	wantErr := errors.New("validation failed")
	err := st.Update(func(tx *Tx) error {
		tx.Mark(KeyRides)
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	raw, _ := adapter.Load(KeyRides)
	if raw != nil {
		t.Error("snapshot saved despite callback error")
	}
}

func TestReloadRoundTrip(t *testing.T) {
	adapter := NewMemoryAdapter()
	st, _ := New(adapter)

	_ = st.Update(func(tx *Tx) error {
		tx.Data.Rides = append(tx.Data.Rides, models.Ride{ID: "r1", PublicToken: "pub_abc", Status: models.StatusAssigned})
		tx.Data.ActivityLog = append(tx.Data.ActivityLog, models.ActivityLogEntry{ID: "e1", RideID: "r1", Seq: tx.NextSeq(), CreatedAt: time.Now().UTC()})
		tx.Mark(KeyRides)
		tx.Mark(KeyActivity)
		return nil
	})

	// A second store over the same adapter sees the committed state.
	st2, err := New(adapter)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	_ = st2.View(func(d *Data) error {
		if len(d.Rides) != 1 || d.Rides[0].PublicToken != "pub_abc" {
			t.Errorf("rides after reload = %+v", d.Rides)
		}
		if len(d.ActivityLog) != 1 {
			t.Errorf("activity after reload = %+v", d.ActivityLog)
		}
		return nil
	})
}

func TestSeqResumesAfterReload(t *testing.T) {
	adapter := NewMemoryAdapter()
	st, _ := New(adapter)

	var lastSeq int64
	_ = st.Update(func(tx *Tx) error {
		for i := 0; i < 3; i++ {
			lastSeq = tx.NextSeq()
			tx.Data.ActivityLog = append(tx.Data.ActivityLog, models.ActivityLogEntry{ID: "e", Seq: lastSeq})
		}
		tx.Mark(KeyActivity)
		return nil
	})

	st2, _ := New(adapter)
	_ = st2.Update(func(tx *Tx) error {
		if next := tx.NextSeq(); next != lastSeq+1 {
			t.Errorf("seq after reload = %d, want %d", next, lastSeq+1)
		}
		return nil
	})
}

func TestFileAdapterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	adapter, err := NewFileAdapter(dir)
	if err != nil {
		t.Fatalf("NewFileAdapter: %v", err)
	}

	// Missing key loads as nil without error.
	raw, err := adapter.Load(KeyRides)
	if err != nil || raw != nil {
		t.Fatalf("missing key: raw=%v err=%v", raw, err)
	}

	if err := adapter.Save(KeyRides, []byte(`[{"id":"r1"}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err = adapter.Load(KeyRides)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(raw) != `[{"id":"r1"}]` {
		t.Errorf("loaded %q", raw)
	}
}

func TestFindersReturnPointersIntoData(t *testing.T) {
	st, _ := New(NewMemoryAdapter())

	_ = st.Update(func(tx *Tx) error {
		tx.Data.Rides = append(tx.Data.Rides, models.Ride{ID: "r1", Status: models.StatusRequested})
		return nil
	})

	_ = st.Update(func(tx *Tx) error {
		ride := tx.FindRide("r1")
		if ride == nil {
			t.Fatal("FindRide returned nil")
		}
		ride.Status = models.StatusAssigned
		return nil
	})

	_ = st.View(func(d *Data) error {
		if d.Rides[0].Status != models.StatusAssigned {
			t.Errorf("mutation through finder pointer lost: %q", d.Rides[0].Status)
		}
		return nil
	})
}
