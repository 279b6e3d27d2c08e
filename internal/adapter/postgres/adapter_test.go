package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func mockAdapter(t *testing.T) (*pgAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &pgAdapter{db: db, session: map[string]string{}}, mock
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want adapter.ErrorClass
	}{
		{"unique violation", &pq.Error{Code: "23505"}, adapter.ErrClassIntegrity},
		{"fk violation", &pq.Error{Code: "23503"}, adapter.ErrClassIntegrity},
		{"serialization failure", &pq.Error{Code: "40001"}, adapter.ErrClassTransient},
		{"deadlock", &pq.Error{Code: "40P01"}, adapter.ErrClassTransient},
		{"lock not available", &pq.Error{Code: "55P03"}, adapter.ErrClassTransient},
		{"connection failure", &pq.Error{Code: "08006"}, adapter.ErrClassConnection},
		{"bad password", &pq.Error{Code: "28P01"}, adapter.ErrClassConnection},
		{"statement timeout", &pq.Error{Code: "57014"}, adapter.ErrClassTimeout},
		{"syntax error", &pq.Error{Code: "42601"}, adapter.ErrClassOther},
		{"context deadline", context.DeadlineExceeded, adapter.ErrClassTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestListTablesFoldsNames(t *testing.T) {
	a, mock := mockAdapter(t)
	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("Orders").AddRow("users"))

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowClassifiesDuplicate(t *testing.T) {
	a, mock := mockAdapter(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users" ("id", "email") VALUES ($1, $2)`)).
		WithArgs(1, "a@example.com").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	res := a.InsertRow(context.Background(), "users", []string{"id", "email"}, []any{1, "a@example.com"})
	assert.False(t, res.OK)
	assert.Equal(t, adapter.ErrClassIntegrity, res.Class)
	assert.Contains(t, res.Err, "duplicate key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractDataOrderedAndFolded(t *testing.T) {
	a, mock := mockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "Email"}).
			AddRow(int64(1), "a@example.com").
			AddRow(int64(2), "b@example.com"))

	res, err := a.ExtractData(context.Background(), "users", "id", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.RowCount)
	assert.Equal(t, "id", res.Stats.OrderKeyUsed)
	assert.Equal(t, int64(1), res.Rows[0]["id"])
	assert.Equal(t, "a@example.com", res.Rows[0]["email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractDataPagesThroughChunks(t *testing.T) {
	a, mock := mockAdapter(t)
	base := `SELECT * FROM "events" ORDER BY id`
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)))
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 4")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	res, err := a.ExtractData(context.Background(), "events", "id", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.RowCount)
	assert.Equal(t, int64(5), res.Rows[4]["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractDataChunkBoundary(t *testing.T) {
	a, mock := mockAdapter(t)
	base := `SELECT * FROM "events" ORDER BY id`
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta(base + " LIMIT 2 OFFSET 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := a.ExtractData(context.Background(), "events", "id", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.RowCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableRendersRegistryTypes(t *testing.T) {
	a, mock := mockAdapter(t)
	schema := &ir.TableSchema{
		Name: "orders",
		Columns: []ir.Column{
			{Name: "id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}, Nullable: false},
			{Name: "total", NativeType: "numeric(10,2)", Type: ir.TypeInfo{Kind: ir.KindDecimal, Precision: 10, Scale: 2}, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
	mock.ExpectExec("CREATE TABLE \"orders\"").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res := a.CreateTable(context.Background(), schema)
	assert.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddForeignKeyAndCreateIndex(t *testing.T) {
	a, mock := mockAdapter(t)
	mock.ExpectExec(regexp.QuoteMeta(
		`ALTER TABLE "orders" ADD CONSTRAINT "fk_orders_user" FOREIGN KEY ("user_id") REFERENCES "users" ("id")`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		`CREATE INDEX "idx_orders_user" ON "orders" ("user_id")`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	res := a.AddForeignKey(context.Background(), "orders", ir.ForeignKey{
		Name: "fk_orders_user", Column: "user_id", RefTable: "users", RefColumn: "id",
	})
	assert.True(t, res.OK)

	res = a.CreateIndex(context.Background(), "orders", ir.Index{
		Name: "idx_orders_user", Columns: []string{"user_id"},
	})
	assert.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderCreateTableCarriesIdentityAndUniques(t *testing.T) {
	schema := &ir.TableSchema{
		Name: "orders",
		Columns: []ir.Column{
			{Name: "id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}, Identity: true},
			{Name: "ref", NativeType: "text", Type: ir.TypeInfo{Kind: ir.KindText}, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		Uniques:    []ir.UniqueConstraint{{Name: "uq_orders_ref", Columns: []string{"ref"}}},
	}
	ddl, err := renderCreateTable(schema, false)
	require.NoError(t, err)
	assert.Contains(t, ddl, `"id" bigint GENERATED BY DEFAULT AS IDENTITY NOT NULL`)
	assert.Contains(t, ddl, `CONSTRAINT "uq_orders_ref" UNIQUE ("ref")`)
}

func TestCreateTableStrictTypesRefusesUnknown(t *testing.T) {
	a, _ := mockAdapter(t)
	a.cfg.StrictTypes = true
	schema := &ir.TableSchema{
		Name: "t",
		Columns: []ir.Column{
			{Name: "geom", NativeType: "geometry", Type: ir.TypeInfo{Kind: ir.KindUnknown, SourceRaw: "geometry"}, Unsupported: true},
		},
	}
	res := a.CreateTable(context.Background(), schema)
	assert.False(t, res.OK)
	assert.Equal(t, adapter.ErrClassConfig, res.Class)
	assert.Contains(t, res.Err, "unmapped type")
}
