package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

// Tables whose rows this core may status-advance. Anything else is a
// programming error, never interpolated into SQL.
var statusTables = map[string]struct{}{
	"lims_xassample":        {},
	"lims_xasscan":          {},
	"lims_xasprocessedscan": {},
	"lims_xasscanaverage":   {},
}

type StatusStore struct {
	db  DB
	now func() time.Time
}

func NewStatusStore(db DB) *StatusStore {
	if db == nil {
		return nil
	}
	return &StatusStore{db: db, now: time.Now}
}

// AdvanceStatus moves each row one step along 0 -> 5 -> 6 -> 7, stamping
// modified. Rows already at the terminal state are left alone. The whole
// id list commits as one transaction.
func (s *StatusStore) AdvanceStatus(ctx context.Context, table string, ids []int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("status store not initialized")
	}
	if _, ok := statusTables[table]; !ok {
		return fmt.Errorf("status advance not allowed for table %q", table)
	}
	if len(ids) == 0 {
		return nil
	}
	now := nowUTC(s.now)
	selectQ := fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, table)
	updateQ := fmt.Sprintf(`UPDATE %s SET status = $1, modified = $2 WHERE id = $3`, table)
	return inTx(ctx, s.db, func(q DB) error {
		for _, id := range ids {
			var status domain.Status
			err := q.QueryRowContext(ctx, selectQ, id).Scan(&status)
			if errors.Is(err, sql.ErrNoRows) {
				status = domain.StatusNew
			} else if err != nil {
				return fmt.Errorf("status of %s id %d: %w", table, id, err)
			}
			next := status.Next()
			if next == status {
				continue
			}
			if _, err := q.ExecContext(ctx, updateQ, next, now, id); err != nil {
				return fmt.Errorf("advance %s id %d: %w", table, id, err)
			}
		}
		return nil
	})
}
