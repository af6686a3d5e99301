package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

// ErrBatchRollback is returned when the final commit of a batch load fails
// and every insert of the batch is rolled back.
var ErrBatchRollback = errors.New("batch rolled back")

// Row failure reasons.
const (
	reasonMissingFields  = "missing required fields"
	reasonInvalidSeats   = "invalid seat count"
	reasonAlreadyExists  = "already exists"
	reasonInvalidOpening = "invalid opening date"
	reasonInvalidActive  = "invalid active flag"
	reasonInvalidType    = "invalid restaurant type"
	reasonCancelled      = "import cancelled"
	reasonDuplicateLost  = "duplicate of a row rolled back with the batch"
)

// RowLoader persists single rows of one entity kind.
type RowLoader interface {
	Entity() EntityKind
	// LoadRow checks, coerces and inserts row through st. It returns the
	// row's terminal status and, unless inserted, the reason.
	LoadRow(ctx context.Context, st Store, row Row) (RowStatus, string)
}

// keyedLoader is implemented by loaders that skip rows whose natural key
// already exists.
type keyedLoader interface {
	NaturalKey(row Row) (string, bool)
}

// RestaurantLoader loads restaurant rows.
type RestaurantLoader struct {
	BoolFallback  BoolFallback
	DefaultTypeID int32
}

// NewRestaurantLoader builds a loader from load options.
func NewRestaurantLoader(opts LoadOptions) *RestaurantLoader {
	return &RestaurantLoader{
		BoolFallback:  opts.BoolFallback,
		DefaultTypeID: opts.DefaultRestaurantTypeID,
	}
}

func (l *RestaurantLoader) Entity() EntityKind { return EntityRestaurant }

var restaurantRequired = []string{"name", "address", "opening_date", "seats_count"}

// LoadRow runs the restaurant row checks in order and inserts on success.
func (l *RestaurantLoader) LoadRow(ctx context.Context, st Store, row Row) (RowStatus, string) {
	var missing []string
	for _, f := range restaurantRequired {
		if trimValue(row.Get(f)).IsMissing() {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return RowFailed, reasonMissingFields + ": " + strings.Join(missing, ", ")
	}

	seats, ok := valueAsInt32(row.Get("seats_count"))
	if !ok || seats <= 0 {
		return RowFailed, reasonInvalidSeats
	}

	name := strings.TrimSpace(row.Get("name").String())
	address := strings.TrimSpace(row.Get("address").String())

	existing, err := st.FindRestaurant(ctx, name, address)
	if err != nil {
		return RowFailed, err.Error()
	}
	if existing != nil {
		return RowSkipped, reasonAlreadyExists
	}

	opening, ok := valueAsTime(row.Get("opening_date"))
	if !ok {
		return RowFailed, reasonInvalidOpening
	}

	active, ok := l.activeFlag(row.Get("is_active"))
	if !ok {
		return RowFailed, reasonInvalidActive
	}

	typeID, ok := l.restaurantType(row)
	if !ok {
		return RowFailed, reasonInvalidType
	}

	_, err = st.InsertRestaurant(ctx, NewRestaurant{
		Name:             name,
		Address:          address,
		Phone:            ToPgText(row.Get("phone").String()),
		Email:            ToPgText(row.Get("email").String()),
		OpeningDate:      opening,
		SeatsCount:       seats,
		RestaurantTypeID: typeID,
		IsActive:         active,
	})
	if err != nil {
		return RowFailed, err.Error()
	}
	return RowInserted, ""
}

// NaturalKey returns the (name, address) pair rows are deduplicated on.
func (l *RestaurantLoader) NaturalKey(row Row) (string, bool) {
	name, address := trimValue(row.Get("name")), trimValue(row.Get("address"))
	if name.IsMissing() || address.IsMissing() {
		return "", false
	}
	return name.String() + "\x00" + address.String(), true
}

// activeFlag resolves is_active. Under FallbackTrue anything unrecognised is
// true; under FallbackReject only a missing flag defaults to true.
func (l *RestaurantLoader) activeFlag(v Value) (bool, bool) {
	v = trimValue(v)
	if v.IsMissing() {
		return true, true
	}
	if b, ok := valueAsBool(v); ok {
		return b, true
	}
	if l.BoolFallback == FallbackReject {
		return false, false
	}
	return true, true
}

func (l *RestaurantLoader) restaurantType(row Row) (int32, bool) {
	v := trimValue(row.Get("restaurant_type_id"))
	if v.IsMissing() {
		v = trimValue(row.Get("restaurant_type"))
	}
	if v.IsMissing() {
		return l.DefaultTypeID, true
	}
	id, ok := valueAsInt32(v)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// Load drives rl over every row of t and accounts for each one as exactly
// one of inserted, skipped or failed.
//
// With CommitPerRow each row runs in its own transaction. With CommitBatch
// the rows share one transaction and each runs in a savepoint; if the final
// commit fails, every insert is rolled back and counted as failed.
func Load(ctx context.Context, st Store, rl RowLoader, t *RawTable, opts LoadOptions) (*LoadOutcome, error) {
	out := newLoadOutcome(t.Len())
	logger := logging.FromContext(ctx)

	parent := st
	var batch Tx
	if opts.CommitMode == CommitBatch {
		tx, err := st.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin batch: %w", err)
		}
		// Safe to call after commit - becomes a no-op
		defer func() { _ = tx.Rollback(context.Background()) }()
		batch = tx
		parent = tx
	}

	record := func(i int, status RowStatus, reason string) {
		switch status {
		case RowInserted:
			out.Successful++
			return
		case RowSkipped:
			out.Skipped++
		default:
			out.Failed++
		}
		if opts.MaxErrorRecords > 0 && len(out.Errors) >= opts.MaxErrorRecords {
			out.ErrorsTruncated++
			return
		}
		out.Errors = append(out.Errors, RowError{
			Row:    i + 1,
			Status: status,
			Error:  reason,
			Record: t.Rows[i].Record(),
		})
	}

	keys := newBatchKeys()
	var cancelErr error
	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			for j := i; j < len(t.Rows); j++ {
				record(j, RowFailed, reasonCancelled)
			}
			break
		}

		status, reason := loadOne(ctx, parent, rl, row)
		logger.Debug("row loaded", "row", i+1, "status", status, "reason", reason)
		record(i, status, reason)
		if batch != nil {
			keys.track(rl, i, row, status)
		}
	}

	if batch != nil {
		if cancelErr != nil {
			rollbackBatch(out, keys.dupes, "import cancelled; batch rolled back")
			return out, fmt.Errorf("load cancelled: %w", cancelErr)
		}
		if err := batch.Commit(ctx); err != nil {
			rollbackBatch(out, keys.dupes, fmt.Sprintf("batch commit failed: %v", err))
			return out, fmt.Errorf("%w: %v", ErrBatchRollback, err)
		}
	}

	if cancelErr != nil {
		out.FatalError = reasonCancelled
		return out, fmt.Errorf("load cancelled: %w", cancelErr)
	}
	return out, nil
}

// loadOne runs a single row inside a (possibly nested) transaction that is
// committed only when the row is inserted.
func loadOne(ctx context.Context, parent Store, rl RowLoader, row Row) (RowStatus, string) {
	tx, err := parent.Begin(ctx)
	if err != nil {
		return RowFailed, err.Error()
	}

	status, reason := rl.LoadRow(ctx, tx, row)
	if status != RowInserted {
		_ = tx.Rollback(ctx)
		return status, reason
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return RowFailed, err.Error()
	}
	return RowInserted, ""
}

// batchKeys remembers the natural keys inserted by the current batch and
// the rows skipped as duplicates of them.
type batchKeys struct {
	inserted map[string]struct{}
	dupes    map[int]struct{} // row indices
}

func newBatchKeys() *batchKeys {
	return &batchKeys{inserted: make(map[string]struct{}), dupes: make(map[int]struct{})}
}

func (b *batchKeys) track(rl RowLoader, i int, row Row, status RowStatus) {
	kl, ok := rl.(keyedLoader)
	if !ok {
		return
	}
	key, ok := kl.NaturalKey(row)
	if !ok {
		return
	}
	switch status {
	case RowInserted:
		b.inserted[key] = struct{}{}
	case RowSkipped:
		if _, seen := b.inserted[key]; seen {
			b.dupes[i] = struct{}{}
		}
	}
}

// rollbackBatch reclassifies every insert of an aborted batch as failed,
// along with rows skipped only because they duplicated one of those inserts.
func rollbackBatch(out *LoadOutcome, dupes map[int]struct{}, msg string) {
	out.Failed += out.Successful + len(dupes)
	out.Skipped -= len(dupes)
	out.Successful = 0
	out.FatalError = msg

	for i := range out.Errors {
		if _, ok := dupes[out.Errors[i].Row-1]; ok {
			out.Errors[i].Status = RowFailed
			out.Errors[i].Error = reasonDuplicateLost
		}
	}
}
