package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/thespacelab/expenseledger/internal/models"
)

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	reg, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	t.Run("implicit default is always listed", func(t *testing.T) {
		list := reg.List()
		if len(list) != 1 {
			t.Fatalf("expected 1 descriptor, got %d", len(list))
		}
		if list[0].FileID != models.DefaultFileID {
			t.Errorf("expected default FileID, got %s", list[0].FileID)
		}
	})

	t.Run("active defaults to the implicit primary", func(t *testing.T) {
		if got := reg.Active(); got != models.DefaultFileID {
			t.Errorf("Active() = %s, want %s", got, models.DefaultFileID)
		}
	})

	t.Run("create mints unique epoch-millis ids", func(t *testing.T) {
		fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		reg.now = func() time.Time { return fixed }

		first, err := reg.Create("Household")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		second, err := reg.Create("Business")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if first.FileID == second.FileID {
			t.Errorf("expected distinct FileIDs, both %s", first.FileID)
		}
		if first.FileID[:3] != "db_" {
			t.Errorf("unexpected FileID format: %s", first.FileID)
		}
	})

	t.Run("list is most recent first with default appended", func(t *testing.T) {
		list := reg.List()
		if len(list) != 3 {
			t.Fatalf("expected 3 descriptors, got %d", len(list))
		}
		if list[0].DisplayName != "Business" || list[1].DisplayName != "Household" {
			t.Errorf("unexpected order: %s, %s", list[0].DisplayName, list[1].DisplayName)
		}
		if list[2].FileID != models.DefaultFileID {
			t.Errorf("expected default last, got %s", list[2].FileID)
		}
	})

	t.Run("record usage upserts without duplicating", func(t *testing.T) {
		household := reg.List()[1]
		if err := reg.RecordUsage(household.FileID, "Household Renamed"); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
		list := reg.List()
		if len(list) != 3 {
			t.Fatalf("expected 3 descriptors after upsert, got %d", len(list))
		}
		if list[0].FileID != household.FileID || list[0].DisplayName != "Household Renamed" {
			t.Errorf("expected upserted descriptor first, got %+v", list[0])
		}
	})

	t.Run("set active rejects unknown ids", func(t *testing.T) {
		err := reg.SetActive("db_0.db")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("get rejects unknown ids", func(t *testing.T) {
		_, err := reg.Get("nope.db")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("state survives reopen", func(t *testing.T) {
		target := reg.List()[0]
		if err := reg.SetActive(target.FileID); err != nil {
			t.Fatalf("SetActive failed: %v", err)
		}

		reopened, err := Open(dir)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if got := reopened.Active(); got != target.FileID {
			t.Errorf("Active() after reopen = %s, want %s", got, target.FileID)
		}
		if len(reopened.List()) != 3 {
			t.Errorf("expected 3 descriptors after reopen, got %d", len(reopened.List()))
		}
	})
}
