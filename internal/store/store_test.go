package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/thespacelab/expenseledger/internal/models"
	"github.com/thespacelab/expenseledger/internal/registry"
	"github.com/thespacelab/expenseledger/internal/storage/sqlite"
)

func newTestStore(t *testing.T) (*Store, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.Open(dir)
	if err != nil {
		t.Fatalf("failed to open registry: %v", err)
	}
	st, err := Open(context.Background(), reg, sqlite.Open, dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, reg
}

func record(date, description, category string, expense int64) models.ExpenseRecord {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.ExpenseRecord{
		Date:        d,
		Description: description,
		Category:    category,
		Expense:     decimal.NewFromInt(expense),
	}
}

func TestImportMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate check skips exact key matches", func(t *testing.T) {
		st, _ := newTestStore(t)
		batch := []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}

		n, err := st.ImportMerge(ctx, batch, true)
		if err != nil {
			t.Fatalf("first import failed: %v", err)
		}
		if n != 1 {
			t.Errorf("first import: got %d, want 1", n)
		}

		n, err = st.ImportMerge(ctx, batch, true)
		if err != nil {
			t.Fatalf("second import failed: %v", err)
		}
		if n != 0 {
			t.Errorf("second import: got %d, want 0", n)
		}
		if got := len(st.List(nil)); got != 1 {
			t.Errorf("stored records: got %d, want 1", got)
		}
	})

	t.Run("merchant and paid-through are not part of the key", func(t *testing.T) {
		st, _ := newTestStore(t)
		a := record("2025-12-04", "Lunch", "Food", 12)
		a.Merchant = "Cafe A"
		b := a
		b.Merchant = "Cafe B"

		if _, err := st.ImportMerge(ctx, []models.ExpenseRecord{a}, true); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		n, err := st.ImportMerge(ctx, []models.ExpenseRecord{b}, true)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected merchant variant to be skipped, imported %d", n)
		}
	})

	t.Run("without duplicate check everything appends", func(t *testing.T) {
		st, _ := newTestStore(t)
		batch := []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}

		for i := 0; i < 2; i++ {
			n, err := st.ImportMerge(ctx, batch, false)
			if err != nil {
				t.Fatalf("import %d failed: %v", i, err)
			}
			if n != 1 {
				t.Errorf("import %d: got %d, want 1", i, n)
			}
		}
		if got := len(st.List(nil)); got != 2 {
			t.Errorf("stored records: got %d, want 2", got)
		}
	})

	t.Run("imports survive reopen", func(t *testing.T) {
		dir := t.TempDir()
		reg, err := registry.Open(dir)
		if err != nil {
			t.Fatalf("failed to open registry: %v", err)
		}
		st, err := Open(ctx, reg, sqlite.Open, dir)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		if _, err := st.ImportMerge(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}, false); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		st.Close()

		reopened, err := Open(ctx, reg, sqlite.Open, dir)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer reopened.Close()
		if got := len(reopened.List(nil)); got != 1 {
			t.Errorf("records after reopen: got %d, want 1", got)
		}
	})
}

func TestListeners(t *testing.T) {
	ctx := context.Background()

	t.Run("both listeners fire once in registration order", func(t *testing.T) {
		st, _ := newTestStore(t)
		var calls []string
		st.Subscribe(func() { calls = append(calls, "first") })
		st.Subscribe(func() { calls = append(calls, "second") })

		if err := st.InsertMany(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
			t.Errorf("calls = %v", calls)
		}
	})

	t.Run("unsubscribed listener receives nothing", func(t *testing.T) {
		st, _ := newTestStore(t)
		fired := 0
		unsubscribe := st.Subscribe(func() { fired++ })
		unsubscribe()

		if err := st.InsertMany(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if fired != 0 {
			t.Errorf("unsubscribed listener fired %d times", fired)
		}
	})

	t.Run("unsubscribing during notification skips only that listener", func(t *testing.T) {
		st, _ := newTestStore(t)
		var calls []string
		var unsubscribeSecond func()
		st.Subscribe(func() {
			calls = append(calls, "first")
			unsubscribeSecond()
		})
		unsubscribeSecond = st.Subscribe(func() { calls = append(calls, "second") })
		st.Subscribe(func() { calls = append(calls, "third") })

		if err := st.InsertMany(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if len(calls) != 2 || calls[0] != "first" || calls[1] != "third" {
			t.Errorf("calls = %v", calls)
		}
	})

	t.Run("settings update notifies", func(t *testing.T) {
		st, _ := newTestStore(t)
		fired := 0
		st.Subscribe(func() { fired++ })

		enabled := true
		if err := st.SetSettings(ctx, models.SettingsPatch{BackupEnabled: &enabled}); err != nil {
			t.Fatalf("SetSettings failed: %v", err)
		}
		if fired != 1 {
			t.Errorf("listener fired %d times, want 1", fired)
		}
	})
}

func TestSwitchActive(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown database fails with NotFound and changes nothing", func(t *testing.T) {
		st, _ := newTestStore(t)
		if err := st.InsertMany(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		before := st.ActiveFileID()

		fired := 0
		st.Subscribe(func() { fired++ })

		err := st.SwitchActive(ctx, "db_0.db")
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if st.ActiveFileID() != before {
			t.Errorf("active changed to %s", st.ActiveFileID())
		}
		if got := len(st.List(nil)); got != 1 {
			t.Errorf("records after failed switch: got %d, want 1", got)
		}
		if fired != 0 {
			t.Errorf("listener fired %d times on failed switch", fired)
		}
	})

	t.Run("switch and return round-trips records", func(t *testing.T) {
		st, reg := newTestStore(t)
		original := st.ActiveFileID()
		if err := st.InsertMany(ctx, []models.ExpenseRecord{record("2025-12-04", "Lunch", "Food", 12)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		desc, err := reg.Create("Business")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		fired := 0
		st.Subscribe(func() { fired++ })

		if err := st.SwitchActive(ctx, desc.FileID); err != nil {
			t.Fatalf("SwitchActive failed: %v", err)
		}
		if st.ActiveFileID() != desc.FileID {
			t.Errorf("active = %s, want %s", st.ActiveFileID(), desc.FileID)
		}
		if got := len(st.List(nil)); got != 0 {
			t.Errorf("new database should be empty, got %d records", got)
		}
		if reg.Active() != desc.FileID {
			t.Errorf("registry active = %s, want %s", reg.Active(), desc.FileID)
		}
		if fired != 1 {
			t.Errorf("listener fired %d times, want 1", fired)
		}

		if err := st.SwitchActive(ctx, original); err != nil {
			t.Fatalf("switch back failed: %v", err)
		}
		if got := len(st.List(nil)); got != 1 {
			t.Errorf("records after switch back: got %d, want 1", got)
		}
	})
}

func TestSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults are always defined", func(t *testing.T) {
		st, _ := newTestStore(t)
		s := st.GetSettings()
		if s.BackupFrequency != models.FrequencyDaily || s.BackupTime != "09:00" {
			t.Errorf("unexpected defaults: %+v", s)
		}
		if s.BackupEnabled {
			t.Error("backups should default to disabled")
		}
	})

	t.Run("merge touches only patched fields", func(t *testing.T) {
		st, _ := newTestStore(t)
		freq := models.FrequencyMonthly
		if err := st.SetSettings(ctx, models.SettingsPatch{BackupFrequency: &freq}); err != nil {
			t.Fatalf("SetSettings failed: %v", err)
		}
		s := st.GetSettings()
		if s.BackupFrequency != models.FrequencyMonthly {
			t.Errorf("BackupFrequency = %s", s.BackupFrequency)
		}
		if s.BackupTime != "09:00" {
			t.Errorf("BackupTime changed to %s", s.BackupTime)
		}
	})
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	records := []models.ExpenseRecord{
		record("2025-12-01", "Team lunch", "Food", 40),
		record("2025-12-02", "Printer paper", "Supplies", 15),
		record("2025-12-03", "Client lunch", "Food", 80),
	}
	if err := st.InsertMany(ctx, records); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("nil filter returns everything in insertion order", func(t *testing.T) {
		all := st.List(nil)
		if len(all) != 3 {
			t.Fatalf("got %d records", len(all))
		}
		if all[0].Description != "Team lunch" || all[2].Description != "Client lunch" {
			t.Errorf("order broken: %q ... %q", all[0].Description, all[2].Description)
		}
	})

	t.Run("field filter is cumulative", func(t *testing.T) {
		got := st.List(FieldFilter{Category: "Food", DescriptionContains: "client"}.Predicate())
		if len(got) != 1 || got[0].Description != "Client lunch" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("summary totals", func(t *testing.T) {
		s := st.Summarize(nil)
		if s.Total.Count != 3 {
			t.Errorf("count = %d", s.Total.Count)
		}
		if !s.Total.Expense.Equal(decimal.NewFromInt(135)) {
			t.Errorf("expense total = %s", s.Total.Expense)
		}
		if food := s.ByCategory["Food"]; food.Count != 2 || !food.Expense.Equal(decimal.NewFromInt(120)) {
			t.Errorf("food breakdown = %+v", food)
		}
	})
}
