package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const restaurantHeader = "name,address,phone,email,opening_date,seats_count,restaurant_type_id,is_active\n"

func restaurantTable(t *testing.T, rows ...string) *RawTable {
	t.Helper()
	return NewTransformer().Transform(readCSV(t, restaurantHeader+strings.Join(rows, "\n")+"\n"))
}

func loadWith(t *testing.T, st Store, opts LoadOptions, table *RawTable) (*LoadOutcome, error) {
	t.Helper()
	out, err := Load(context.Background(), st, NewRestaurantLoader(opts), table, opts)
	if out != nil {
		assertAccounted(t, out)
	}
	return out, err
}

func assertAccounted(t *testing.T, out *LoadOutcome) {
	t.Helper()
	if out.Total != out.Successful+out.Failed+out.Skipped {
		t.Errorf("total %d != successful %d + failed %d + skipped %d",
			out.Total, out.Successful, out.Failed, out.Skipped)
	}
}

func batchOptions() LoadOptions {
	opts := DefaultLoadOptions()
	opts.CommitMode = CommitBatch
	return opts
}

// ============================================================================
// End-to-end row outcome Tests
// ============================================================================

func TestLoad_MixedRows(t *testing.T) {
	for _, opts := range []LoadOptions{DefaultLoadOptions(), batchOptions()} {
		t.Run(string(opts.CommitMode), func(t *testing.T) {
			st := newMemStore()
			table := restaurantTable(t,
				"Pushkin,Tverskoy 26,+7 495 739 00 33,info@pushkin.ru,2024-01-15,120,1,yes",
				"Bad Seats,Arbat 1,,,2024-02-01,-5,1,yes",
				"Pushkin,Tverskoy 26,,,2024-01-15,120,1,yes",
			)

			out, err := loadWith(t, st, opts, table)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if out.Total != 3 || out.Successful != 1 || out.Failed != 1 || out.Skipped != 1 {
				t.Errorf("outcome = %+v, want 3 total, 1 successful, 1 failed, 1 skipped", out)
			}
			if st.count() != 1 {
				t.Errorf("persisted rows = %d, want 1", st.count())
			}
			if len(out.Errors) != 2 {
				t.Fatalf("errors = %+v, want 2 records", out.Errors)
			}
			if e := out.Errors[0]; e.Row != 2 || e.Status != RowFailed || e.Error != reasonInvalidSeats {
				t.Errorf("errors[0] = %+v, want row 2 failed invalid seat count", e)
			}
			if e := out.Errors[1]; e.Row != 3 || e.Status != RowSkipped || e.Error != reasonAlreadyExists {
				t.Errorf("errors[1] = %+v, want row 3 skipped already exists", e)
			}
		})
	}
}

func TestLoad_PersistsCoercedFields(t *testing.T) {
	st := newMemStore()
	table := restaurantTable(t, "  Pushkin , Tverskoy 26 , +7 495 739 00 33 ,,15.01.2024,\"1,200\",3,нет")

	if _, err := loadWith(t, st, DefaultLoadOptions(), table); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rows := st.all()
	if len(rows) != 1 {
		t.Fatalf("persisted rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Name != "Pushkin" || r.Address != "Tverskoy 26" {
		t.Errorf("natural key = (%q, %q), want trimmed", r.Name, r.Address)
	}
	if !r.Phone.Valid || r.Phone.String != "+7 495 739 00 33" {
		t.Errorf("phone = %+v", r.Phone)
	}
	if r.Email.Valid {
		t.Errorf("email = %+v, want NULL", r.Email)
	}
	if r.OpeningDate.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("opening_date = %s", r.OpeningDate)
	}
	if r.SeatsCount != 1200 || r.RestaurantTypeID != 3 || r.IsActive {
		t.Errorf("seats=%d type=%d active=%v, want 1200 3 false", r.SeatsCount, r.RestaurantTypeID, r.IsActive)
	}
}

func TestLoad_RowChecks(t *testing.T) {
	tests := []struct {
		name       string
		row        string
		opts       func(*LoadOptions)
		wantStatus RowStatus
		wantReason string
	}{
		{"missing address", "A,,,,2024-01-15,10,1,yes", nil, RowFailed, "missing required fields: address"},
		{"missing several", ",,,,,,1,yes", nil, RowFailed, "missing required fields: name, address, opening_date, seats_count"},
		{"negative seats", "A,B,,,2024-01-15,-5,1,yes", nil, RowFailed, reasonInvalidSeats},
		{"zero seats", "A,B,,,2024-01-15,0,1,yes", nil, RowFailed, reasonInvalidSeats},
		{"fractional seats", "A,B,,,2024-01-15,2.5,1,yes", nil, RowFailed, reasonInvalidSeats},
		{"unparsable seats", "A,B,,,2024-01-15,many,1,yes", nil, RowFailed, "missing required fields: seats_count"},
		{"unparsable date", "A,B,,,someday,10,1,yes", nil, RowFailed, "missing required fields: opening_date"},
		{"unparsable type falls back to default", "A,B,,,2024-01-15,10,x,yes", nil, RowInserted, ""},
		{"fractional type", "A,B,,,2024-01-15,10,1.5,yes", nil, RowFailed, reasonInvalidType},
		{"negative type", "A,B,,,2024-01-15,10,-1,yes", nil, RowFailed, reasonInvalidType},
		{"unknown flag defaults true", "A,B,,,2024-01-15,10,1,maybe", nil, RowInserted, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultLoadOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			st := newMemStore()
			out, err := loadWith(t, st, opts, restaurantTable(t, tt.row))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if tt.wantStatus == RowInserted {
				if out.Successful != 1 || st.count() != 1 {
					t.Errorf("outcome = %+v, want 1 inserted", out)
				}
				return
			}
			if out.Successful != 0 || st.count() != 0 {
				t.Errorf("row should not be inserted: %+v", out)
			}
			if len(out.Errors) != 1 {
				t.Fatalf("errors = %+v, want 1", out.Errors)
			}
			e := out.Errors[0]
			if e.Status != tt.wantStatus || !strings.HasPrefix(e.Error, tt.wantReason) {
				t.Errorf("error = %+v, want %s %q", e, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestLoad_BoolFallbackReject(t *testing.T) {
	opts := DefaultLoadOptions()
	opts.BoolFallback = FallbackReject
	tr := NewTransformer()
	tr.StrictBools = true

	table := tr.Transform(readCSV(t, restaurantHeader+
		"A,Street 1,,,2024-01-15,10,1,maybe\n"+
		"B,Street 2,,,2024-01-15,10,1,\n"+
		"C,Street 3,,,2024-01-15,10,1,off\n"))

	st := newMemStore()
	out, err := loadWith(t, st, opts, table)
	if err != nil {
		t.Fatal(err)
	}
	if out.Successful != 2 || out.Failed != 1 {
		t.Fatalf("outcome = %+v, want 2 successful, 1 failed", out)
	}
	if e := out.Errors[0]; e.Row != 1 || e.Error != reasonInvalidActive {
		t.Errorf("error = %+v, want row 1 invalid active flag", e)
	}

	active := map[string]bool{}
	for _, r := range st.all() {
		active[r.Name] = r.IsActive
	}
	if !active["B"] || active["C"] {
		t.Errorf("is_active = %v, want B true (missing) and C false", active)
	}
}

func TestLoad_RecordIsJSONSafe(t *testing.T) {
	st := newMemStore()
	out, _ := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t, "A,,,,15.01.2024,10,1,yes"))

	rec := out.Errors[0].Record
	if rec["address"] != nil {
		t.Errorf("missing address = %v, want nil", *rec["address"])
	}
	if rec["opening_date"] == nil || *rec["opening_date"] != "2024-01-15" {
		t.Errorf("opening_date = %v, want ISO date", rec["opening_date"])
	}
	if rec["seats_count"] == nil || *rec["seats_count"] != "10" {
		t.Errorf("seats_count = %v, want \"10\"", rec["seats_count"])
	}
	if rec["is_active"] == nil || *rec["is_active"] != "true" {
		t.Errorf("is_active = %v, want \"true\"", rec["is_active"])
	}
}

func TestLoad_DefaultRestaurantType(t *testing.T) {
	st := newMemStore()
	opts := DefaultLoadOptions()
	opts.DefaultRestaurantTypeID = 7

	if _, err := loadWith(t, st, opts, restaurantTable(t, "A,B,,,2024-01-15,10,,")); err != nil {
		t.Fatal(err)
	}
	r := st.all()[0]
	if r.RestaurantTypeID != 7 {
		t.Errorf("restaurant_type_id = %d, want default 7", r.RestaurantTypeID)
	}
	if !r.IsActive {
		t.Error("missing is_active should default to true")
	}
}

func TestLoad_RestaurantTypeAlias(t *testing.T) {
	st := newMemStore()
	table := NewTransformer().Transform(readCSV(t,
		"name,address,opening_date,seats_count,restaurant_type\nA,B,2024-01-15,10,4\n"))

	if _, err := loadWith(t, st, DefaultLoadOptions(), table); err != nil {
		t.Fatal(err)
	}
	if got := st.all()[0].RestaurantTypeID; got != 4 {
		t.Errorf("restaurant_type_id = %d, want 4", got)
	}
}

// ============================================================================
// Idempotency and store failure Tests
// ============================================================================

func TestLoad_RerunSkipsEverything(t *testing.T) {
	st := newMemStore()
	rows := []string{
		"A,Street 1,,,2024-01-15,10,1,yes",
		"B,Street 2,,,2024-01-16,20,1,no",
		"C,Street 3,,,2024-01-17,-1,1,yes",
	}

	first, err := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t, rows...))
	if err != nil {
		t.Fatal(err)
	}
	if first.Successful != 2 {
		t.Fatalf("first run successful = %d, want 2", first.Successful)
	}

	second, err := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t, rows...))
	if err != nil {
		t.Fatal(err)
	}
	if second.Successful != 0 || second.Skipped != 2 || second.Failed != 1 {
		t.Errorf("second run = %+v, want 0 successful, 2 skipped, 1 failed", second)
	}
	if st.count() != 2 {
		t.Errorf("persisted rows = %d, want 2", st.count())
	}
	for _, e := range second.Errors {
		if e.Status == RowSkipped && e.Error != reasonAlreadyExists {
			t.Errorf("skip reason = %q", e.Error)
		}
	}
}

func TestLoad_InsertFailureIsolatedPerRow(t *testing.T) {
	st := newMemStore()
	st.insertErr["B"] = errors.New(`insert or update on table "restaurants" violates foreign key constraint`)

	out, err := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t,
		"A,Street 1,,,2024-01-15,10,1,yes",
		"B,Street 2,,,2024-01-15,10,99,yes",
		"C,Street 3,,,2024-01-15,10,1,yes",
	))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Successful != 2 || out.Failed != 1 {
		t.Errorf("outcome = %+v, want 2 successful, 1 failed", out)
	}
	if !strings.Contains(out.Errors[0].Error, "violates foreign key") {
		t.Errorf("error = %q, want store message", out.Errors[0].Error)
	}
}

func TestLoad_LookupFailureFailsRow(t *testing.T) {
	st := newMemStore()
	st.findErr = errors.New("connection reset by peer")

	out, err := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t, "A,B,,,2024-01-15,10,1,yes"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Failed != 1 || out.Errors[0].Error != "connection reset by peer" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestLoad_BatchCommitFailureRollsBack(t *testing.T) {
	st := newMemStore()
	st.commitErr = errors.New("connection lost")

	out, err := loadWith(t, st, batchOptions(), restaurantTable(t,
		"A,Street 1,,,2024-01-15,10,1,yes",
		"B,Street 2,,,2024-01-15,10,1,yes",
		"C,Street 3,,,2024-01-15,-1,1,yes",
	))
	if !errors.Is(err, ErrBatchRollback) {
		t.Fatalf("Load() error = %v, want ErrBatchRollback", err)
	}
	if out.Successful != 0 || out.Failed != 3 {
		t.Errorf("outcome = %+v, want 0 successful, 3 failed", out)
	}
	if !strings.Contains(out.FatalError, "connection lost") {
		t.Errorf("fatal error = %q", out.FatalError)
	}
	if len(out.Errors) != 1 {
		t.Errorf("row errors = %d, want only the per-row failure", len(out.Errors))
	}
	if st.count() != 0 {
		t.Errorf("persisted rows = %d, want 0 after rollback", st.count())
	}
}

func TestLoad_BatchDuplicateWithinFileIsSkipped(t *testing.T) {
	st := newMemStore()
	out, err := loadWith(t, st, batchOptions(), restaurantTable(t,
		"A,Street 1,,,2024-01-15,10,1,yes",
		"A,Street 1,,,2024-01-15,10,1,yes",
	))
	if err != nil {
		t.Fatal(err)
	}
	if out.Successful != 1 || out.Skipped != 1 || st.count() != 1 {
		t.Errorf("outcome = %+v, persisted %d", out, st.count())
	}
}

func TestLoad_BatchRollbackFailsDuplicatesOfRolledBackRows(t *testing.T) {
	st := newMemStore()
	if _, err := st.InsertRestaurant(context.Background(), NewRestaurant{Name: "Old", Address: "Street 9", SeatsCount: 5, RestaurantTypeID: 1}); err != nil {
		t.Fatal(err)
	}
	st.commitErr = errors.New("connection lost")

	out, err := loadWith(t, st, batchOptions(), restaurantTable(t,
		"A,Street 1,,,2024-01-15,10,1,yes",
		"A,Street 1,,,2024-01-15,10,1,yes",
		"Old,Street 9,,,2024-01-15,10,1,yes",
	))
	if !errors.Is(err, ErrBatchRollback) {
		t.Fatalf("Load() error = %v, want ErrBatchRollback", err)
	}
	if out.Successful != 0 || out.Failed != 2 || out.Skipped != 1 {
		t.Errorf("outcome = %+v, want 0 successful, 2 failed, 1 skipped", out)
	}

	byRow := make(map[int]RowError)
	for _, e := range out.Errors {
		byRow[e.Row] = e
	}
	if e := byRow[2]; e.Status != RowFailed || e.Error != reasonDuplicateLost {
		t.Errorf("row 2 = %+v, want failed duplicate of rolled back row", e)
	}
	if e := byRow[3]; e.Status != RowSkipped || e.Error != reasonAlreadyExists {
		t.Errorf("row 3 = %+v, want skipped as already existing", e)
	}
	if st.count() != 1 {
		t.Errorf("persisted rows = %d, want only the pre-existing row", st.count())
	}
}

func TestLoad_BlankTokenRowIsCountedAsFailed(t *testing.T) {
	out, err := loadWith(t, newMemStore(), DefaultLoadOptions(), restaurantTable(t,
		"A,Street 1,,,2024-01-15,10,1,yes",
		"-,-,-,-,-,-,-,-",
	))
	if err != nil {
		t.Fatal(err)
	}
	if out.Total != 2 || out.Successful != 1 || out.Failed != 1 {
		t.Fatalf("outcome = %+v, want 2 total, 1 successful, 1 failed", out)
	}
	if e := out.Errors[0]; e.Row != 2 || !strings.HasPrefix(e.Error, reasonMissingFields) {
		t.Errorf("row error = %+v, want row 2 missing fields", e)
	}
}

func TestLoad_DayFirstSlashedOpeningDate(t *testing.T) {
	st := newMemStore()
	out, err := loadWith(t, st, DefaultLoadOptions(), restaurantTable(t,
		"A,Street 1,,,25/12/2019,10,1,yes",
		"B,Street 2,,,13/01/2020,10,1,yes",
	))
	if err != nil {
		t.Fatal(err)
	}
	if out.Successful != 2 {
		t.Fatalf("outcome = %+v, want 2 successful", out)
	}

	want := map[string]string{"A": "2019-12-25", "B": "2020-01-13"}
	for _, r := range st.all() {
		if got := r.OpeningDate.Format(time.DateOnly); got != want[r.Name] {
			t.Errorf("%s opening date = %s, want %s", r.Name, got, want[r.Name])
		}
	}
}

// ============================================================================
// Cancellation and error cap Tests
// ============================================================================

func TestLoad_CancelledContext(t *testing.T) {
	for _, opts := range []LoadOptions{DefaultLoadOptions(), batchOptions()} {
		t.Run(string(opts.CommitMode), func(t *testing.T) {
			st := newMemStore()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			table := restaurantTable(t,
				"A,Street 1,,,2024-01-15,10,1,yes",
				"B,Street 2,,,2024-01-15,10,1,yes",
			)
			out, err := Load(ctx, st, NewRestaurantLoader(opts), table, opts)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Load() error = %v, want context.Canceled", err)
			}
			assertAccounted(t, out)
			if out.Failed != 2 || out.FatalError == "" {
				t.Errorf("outcome = %+v, want 2 failed with fatal error", out)
			}
			for _, e := range out.Errors {
				if e.Error != reasonCancelled {
					t.Errorf("reason = %q, want %q", e.Error, reasonCancelled)
				}
			}
			if st.count() != 0 {
				t.Errorf("persisted rows = %d, want 0", st.count())
			}
		})
	}
}

func TestLoad_ErrorRecordCap(t *testing.T) {
	opts := DefaultLoadOptions()
	opts.MaxErrorRecords = 2

	out, err := loadWith(t, newMemStore(), opts, restaurantTable(t,
		"A,,,,,,,",
		"B,,,,,,,",
		"C,,,,,,,",
		"D,,,,,,,",
	))
	if err != nil {
		t.Fatal(err)
	}
	if out.Failed != 4 || len(out.Errors) != 2 || out.ErrorsTruncated != 2 {
		t.Errorf("outcome = %+v, want 4 failed, 2 records, 2 truncated", out)
	}
}

func TestLoad_EmptyTable(t *testing.T) {
	out, err := loadWith(t, newMemStore(), DefaultLoadOptions(), &RawTable{Columns: []string{"name"}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Total != 0 || out.Errors == nil {
		t.Errorf("outcome = %+v, want empty outcome with non-nil errors", out)
	}
}
