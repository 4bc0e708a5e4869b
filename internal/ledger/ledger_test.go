package ledger_test

import (
	"context"
	"testing"
	"time"

	"fbank/internal/domain"
	"fbank/internal/ledger"
	"fbank/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func appendRows(t *testing.T, db *gorm.DB, l *ledger.Ledger, userID uint, amounts ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(amounts))
	for _, a := range amounts {
		id, err := l.Append(db, ledger.Entry{
			UserID:      userID,
			Amount:      testutil.Money(a),
			Type:        domain.TxTransfer,
			Description: "Transfer " + a,
			FromRef:     "KZ000000001",
			ToRef:       "KZ000000002",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestAppendAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	l := ledger.New(db)
	u := testutil.CreateUser(t, db, "77010000001")
	other := testutil.CreateUser(t, db, "77010000002")

	ids := appendRows(t, db, l, u.ID, "-10", "20.5", "-30")
	appendRows(t, db, l, other.ID, "99")

	page, err := l.List(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[0], page.Items[2].ID)
	testutil.RequireMoney(t, "20.5", page.Items[1].Amount)
	assert.Equal(t, "KZ000000001", page.Items[0].FromRef)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	l := ledger.New(db)
	u := testutil.CreateUser(t, db, "77010000001")
	ids := appendRows(t, db, l, u.ID, "1", "2", "3", "4", "5")

	page, err := l.List(ctx, u.ID, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = l.List(ctx, u.ID, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, ledger.MaxPageSize, page.PageSize)
	assert.Len(t, page.Items, 5)
}

func TestListAllFilters(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	l := ledger.New(db)
	u := testutil.CreateUser(t, db, "77010000001")
	other := testutil.CreateUser(t, db, "77010000002")
	appendRows(t, db, l, u.ID, "-1", "-2")
	_, err := l.Append(db, ledger.Entry{UserID: other.ID, Amount: testutil.Money("100"), Type: domain.TxDeposit, Description: "Account top-up"})
	require.NoError(t, err)

	page, err := l.ListAll(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = l.ListAll(ctx, ledger.Filter{Type: domain.TxDeposit})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, other.ID, page.Items[0].UserID)

	future := time.Now().Add(time.Hour)
	page, err = l.ListAll(ctx, ledger.Filter{UserID: u.ID, From: &future})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
	assert.NotNil(t, page.Items)
}

func TestRowsAreImmutable(t *testing.T) {
	db := testutil.NewDB(t)
	l := ledger.New(db)
	u := testutil.CreateUser(t, db, "77010000001")
	ids := appendRows(t, db, l, u.ID, "-10")

	var row domain.Transaction
	require.NoError(t, db.First(&row, ids[0]).Error)

	err := db.Model(&row).Update("amount", "1000").Error
	assert.ErrorIs(t, err, domain.ErrLedgerImmutable)
	err = db.Delete(&row).Error
	assert.ErrorIs(t, err, domain.ErrLedgerImmutable)

	require.NoError(t, db.First(&row, ids[0]).Error)
	testutil.RequireMoney(t, "-10", row.Amount)
}

func TestAppendRollsBackWithCaller(t *testing.T) {
	db := testutil.NewDB(t)
	l := ledger.New(db)
	u := testutil.CreateUser(t, db, "77010000001")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := l.Append(tx, ledger.Entry{UserID: u.ID, Amount: testutil.Money("-5"), Type: domain.TxPayment})
		require.NoError(t, err)
		return domain.InsufficientFunds()
	})
	require.Error(t, err)
	assert.EqualValues(t, 0, testutil.CountTransactions(t, db, u.ID))
}
