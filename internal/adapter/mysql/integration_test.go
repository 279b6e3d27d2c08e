package mysql

import (
	"context"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// TestIntegrationTableRoundTrip exercises the full L0 path against a real
// server: create, insert, introspect, extract. Requires a container runtime.
func TestIntegrationTableRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test; skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("saiql"),
		tcmysql.WithUsername("migrator"),
		tcmysql.WithPassword("migrator-pw"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, nat.Port("3306/tcp"))
	require.NoError(t, err)

	a, err := adapter.New(ir.DialectMySQL, adapter.Config{
		Host:     host,
		Port:     port.Int(),
		Database: "saiql",
		User:     "migrator",
		Password: "migrator-pw",
	})
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx))
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, ir.DialectMySQL, a.Dialect())

	schema := &ir.TableSchema{
		Name: "users",
		Columns: []ir.Column{
			{Name: "id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}},
			{Name: "email", NativeType: "varchar(120)", Type: ir.TypeInfo{Kind: ir.KindVarchar, Length: 120}},
			{Name: "active", NativeType: "tinyint(1)", Type: ir.TypeInfo{Kind: ir.KindBoolean}, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
	res := a.CreateTable(ctx, schema)
	require.True(t, res.OK, res.Err)

	ins := a.InsertRow(ctx, "users", []string{"id", "email", "active"}, []any{1, "a@example.com", 1})
	require.True(t, ins.OK, ins.Err)
	ins = a.InsertRow(ctx, "users", []string{"id", "email", "active"}, []any{2, "b@example.com", 0})
	require.True(t, ins.OK, ins.Err)

	// A duplicate key is an integrity record, not a harness error.
	dup := a.InsertRow(ctx, "users", []string{"id", "email", "active"}, []any{1, "c@example.com", 1})
	assert.False(t, dup.OK)
	assert.Equal(t, adapter.ErrClassIntegrity, dup.Class)

	got, err := a.TableSchema(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, got.PrimaryKey)
	require.Len(t, got.Columns, 3)
	assert.Equal(t, "id", got.Columns[0].Name)
	assert.Equal(t, ir.KindBigInt, got.Columns[0].Type.Kind)

	ext, err := a.ExtractData(ctx, "users", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ext.Stats.RowCount)
	assert.Equal(t, "id", ext.Stats.OrderKeyUsed)
	assert.Equal(t, "a@example.com", ext.Rows[0]["email"])
}
