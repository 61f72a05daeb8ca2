package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Os testes usam um PostgreSQL real apontado por TIJOLO_TEST_DATABASE_URL.
func openDB(t *testing.T) *storage.DB {
	t.Helper()
	dsn := os.Getenv("TIJOLO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TIJOLO_TEST_DATABASE_URL não definido")
	}
	db, err := storage.NewDB(dsn, "./migrations")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Migrate("./migrations", migrate.Down)
		db.Close()
	})
	return db
}

func TestMirrorRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	owner, holder, buyer := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	created := time.Now().UTC().Truncate(time.Millisecond)

	p := models.Property{
		ID: uuid.NewString(), Name: "Vila Sol", TotalValue: 10000, TotalShares: 1000,
		AvailableShares: 1000, PricePerShare: 10, IsActive: true, Owner: owner, CreatedAt: created,
	}
	require.NoError(t, db.SaveProperty(ctx, p))

	p.AvailableShares = 900
	p.Treasury = 1000
	p.IsActive = false
	require.NoError(t, db.SaveProperty(ctx, p))

	got, err := db.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), got.AvailableShares)
	assert.Equal(t, uint64(1000), got.Treasury)
	assert.Equal(t, owner, got.Owner)
	assert.False(t, got.IsActive)

	active, err := db.ListProperties(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	inv := models.Investment{ID: uuid.NewString(), PropertyID: p.ID, Holder: holder, SharesOwned: 100, AmountPaid: 1000, CreatedAt: created}
	require.NoError(t, db.SaveInvestment(ctx, inv))
	inv.Holder = buyer
	require.NoError(t, db.SaveInvestment(ctx, inv))

	byHolder, err := db.InvestmentsByHolder(ctx, holder)
	require.NoError(t, err)
	assert.Empty(t, byHolder)
	byBuyer, err := db.InvestmentsByHolder(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, uint64(100), byBuyer[0].SharesOwned)

	_, err = db.GetProperty(ctx, "inexistente")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListenerCursor(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	seq, err := db.LoadCursor(ctx, "mirror")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	require.NoError(t, db.SaveCursor(ctx, "mirror", 42))
	require.NoError(t, db.SaveCursor(ctx, "mirror", 43))
	seq, err = db.LoadCursor(ctx, "mirror")
	require.NoError(t, err)
	assert.Equal(t, uint64(43), seq)
}

func TestPrepareForLedgerRefusesStaleMirror(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.PrepareForLedger(ctx, false))

	// restos de uma execução anterior
	stale := models.Property{
		ID: uuid.NewString(), Name: "Antigo", TotalShares: 10, AvailableShares: 5, PricePerShare: 1,
		IsActive: true, Owner: solana.NewWallet().PublicKey(), CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.SaveProperty(ctx, stale))
	require.NoError(t, db.SaveInvestment(ctx, models.Investment{
		ID: uuid.NewString(), PropertyID: stale.ID, Holder: solana.NewWallet().PublicKey(),
		SharesOwned: 5, AmountPaid: 5, CreatedAt: stale.CreatedAt,
	}))
	require.NoError(t, db.SaveCursor(ctx, "mirror", 7))

	err := db.PrepareForLedger(ctx, false)
	assert.ErrorIs(t, err, storage.ErrMirrorNotEmpty)
	_, err = db.GetProperty(ctx, stale.ID)
	require.NoError(t, err)

	require.NoError(t, db.PrepareForLedger(ctx, true))
	_, err = db.GetProperty(ctx, stale.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	all, err := db.ListProperties(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, all)
	seq, err := db.LoadCursor(ctx, "mirror")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
	empty, err := db.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}
