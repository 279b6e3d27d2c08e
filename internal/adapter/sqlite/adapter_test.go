package sqlite

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want adapter.ErrorClass
	}{
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, adapter.ErrClassIntegrity},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, adapter.ErrClassTransient},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, adapter.ErrClassTransient},
		{"cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, adapter.ErrClassConnection},
		{"misuse", sqlite3.Error{Code: sqlite3.ErrMisuse}, adapter.ErrClassOther},
		{"context deadline", context.DeadlineExceeded, adapter.ErrClassTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestSupportsExcludesRoutines(t *testing.T) {
	a := &liteAdapter{}
	assert.True(t, a.Supports(adapter.L0Tables))
	assert.True(t, a.Supports(adapter.L2Views))
	assert.True(t, a.Supports(adapter.L4Triggers))
	assert.False(t, a.Supports(adapter.L3Routines))
}

func TestExtractDataDrainsAllChunks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	a := &liteAdapter{db: db, session: map[string]string{}}

	base := `SELECT * FROM "t" ORDER BY id`
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)))
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 4")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	res, err := a.ExtractData(context.Background(), "t", "id", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.RowCount)
	assert.Equal(t, int64(1), res.Rows[0]["id"])
	assert.Equal(t, int64(5), res.Rows[4]["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggerHeadParsing(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantTiming ir.TriggerTiming
		wantEvent  ir.TriggerEvent
	}{
		{
			name:       "before insert",
			sql:        "CREATE TRIGGER trg BEFORE INSERT ON users BEGIN SELECT 1; END",
			wantTiming: ir.TimingBefore,
			wantEvent:  ir.EventInsert,
		},
		{
			name:       "after update of column",
			sql:        "CREATE TRIGGER trg AFTER UPDATE OF email ON users BEGIN SELECT 1; END",
			wantTiming: ir.TimingAfter,
			wantEvent:  ir.EventUpdate,
		},
		{
			name:       "instead of delete",
			sql:        "CREATE TRIGGER trg INSTEAD OF DELETE ON v_users BEGIN SELECT 1; END",
			wantTiming: ir.TimingInsteadOf,
			wantEvent:  ir.EventDelete,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := triggerHeadRe.FindStringSubmatch(tt.sql)
			if assert.NotNil(t, m) {
				trg := ir.Trigger{Timing: ir.TimingAfter}
				switch m[1] {
				case "BEFORE":
					trg.Timing = ir.TimingBefore
				case "INSTEAD OF":
					trg.Timing = ir.TimingInsteadOf
				}
				assert.Equal(t, tt.wantTiming, trg.Timing)
				assert.Equal(t, string(tt.wantEvent), strings.ToLower(m[2]))
			}
		})
	}
}

func TestTriggerBodyExtraction(t *testing.T) {
	def := "CREATE TRIGGER trg BEFORE INSERT ON users\nBEGIN\n  SELECT 1;\nEND"
	body := triggerBody(def)
	assert.Equal(t, "BEGIN\n  SELECT 1;\nEND", body)

	assert.Equal(t, "no block here", triggerBody("no block here"))
}
