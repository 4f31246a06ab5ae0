package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
)

func TestTransfer_MovesFundsAtomically(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	sender, senderAccount, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)
	_, receiverAccount, err := SeedCustomer(ctx, testDB.Pool, "bob", "0.00")
	require.NoError(t, err)

	txn, err := svc.Transfer.Transfer(ctx, actorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString("40.00"), "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionTypeTransfer, txn.Type)

	senderBalance, err := AccountBalance(ctx, testDB.DB, senderAccount.ID)
	require.NoError(t, err)
	receiverBalance, err := AccountBalance(ctx, testDB.DB, receiverAccount.ID)
	require.NoError(t, err)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("60.00")), "got sender balance %s", senderBalance)
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("40.00")), "got receiver balance %s", receiverBalance)

	total, err := TotalBalance(ctx, testDB.Pool)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("100.00")), "transfers must conserve total funds, got %s", total)

	count, err := CountTransactions(ctx, testDB.Pool)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	audits, err := CountAuditLogs(ctx, testDB.Pool, models.AuditActionTransfer, models.AuditStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), audits)
}

func TestTransfer_InsufficientFundsLeavesStateUnchanged(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	sender, senderAccount, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)
	_, receiverAccount, err := SeedCustomer(ctx, testDB.Pool, "bob", "0.00")
	require.NoError(t, err)

	_, err = svc.Transfer.Transfer(ctx, actorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString("1000.00"), "127.0.0.1")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	senderBalance, err := AccountBalance(ctx, testDB.DB, senderAccount.ID)
	require.NoError(t, err)
	receiverBalance, err := AccountBalance(ctx, testDB.DB, receiverAccount.ID)
	require.NoError(t, err)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, receiverBalance.Equal(decimal.Zero))

	count, err := CountTransactions(ctx, testDB.Pool)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "failed transfer must not record a ledger entry")

	audits, err := CountAuditLogs(ctx, testDB.Pool, models.AuditActionTransfer, models.AuditStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), audits, "failed transfer must still record a failure audit entry")
}

func TestTransfer_FaultAfterDebitRollsBack(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	_, account, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = testDB.DB.WithTransaction(ctx, func(q database.Querier) error {
		if err := svc.Accounts.Debit(ctx, q, account.ID, decimal.RequireFromString("40.00")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := AccountBalance(ctx, testDB.DB, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100.00")), "debit must roll back with the transaction, got %s", balance)
}

func TestTransfer_ConcurrentTransfersSerialize(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	sender, senderAccount, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)
	_, receiverAccount, err := SeedCustomer(ctx, testDB.Pool, "bob", "0.00")
	require.NoError(t, err)

	const workers = 10
	amount := decimal.RequireFromString("10.00")

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transfer.Transfer(ctx, actorFor(sender), receiverAccount.AccountNumber, amount, "127.0.0.1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "transfer %d", i)
	}

	senderBalance, err := AccountBalance(ctx, testDB.DB, senderAccount.ID)
	require.NoError(t, err)
	receiverBalance, err := AccountBalance(ctx, testDB.DB, receiverAccount.ID)
	require.NoError(t, err)
	assert.True(t, senderBalance.Equal(decimal.Zero), "got sender balance %s", senderBalance)
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("100.00")), "got receiver balance %s", receiverBalance)

	count, err := CountTransactions(ctx, testDB.Pool)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
}

func TestTransfer_OpposingConcurrentTransfersDoNotDeadlock(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	alice, aliceAccount, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)
	bob, bobAccount, err := SeedCustomer(ctx, testDB.Pool, "bob", "100.00")
	require.NoError(t, err)

	const rounds = 5
	amount := decimal.RequireFromString("10.00")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer.Transfer(ctx, actorFor(alice), bobAccount.AccountNumber, amount, "127.0.0.1")
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer.Transfer(ctx, actorFor(bob), aliceAccount.AccountNumber, amount, "127.0.0.1")
			assert.NoError(t, err)
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("opposing transfers did not complete, likely deadlocked")
	}

	total, err := TotalBalance(ctx, testDB.Pool)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("200.00")), "got total %s", total)

	aliceBalance, err := AccountBalance(ctx, testDB.DB, aliceAccount.ID)
	require.NoError(t, err)
	assert.False(t, aliceBalance.IsNegative())
	bobBalance, err := AccountBalance(ctx, testDB.DB, bobAccount.ID)
	require.NoError(t, err)
	assert.False(t, bobBalance.IsNegative())
}

func TestDeposit_CreditsAccount(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	user, account, err := SeedCustomer(ctx, testDB.Pool, "alice", "10.00")
	require.NoError(t, err)

	txn, err := svc.Transfer.Deposit(ctx, actorFor(user), decimal.RequireFromString("25.50"), "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Nil(t, txn.SenderAccountID)
	assert.Equal(t, models.TransactionTypeDeposit, txn.Type)

	balance, err := AccountBalance(ctx, testDB.DB, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("35.50")), "got balance %s", balance)
}

func TestTransfer_SelfTransferRejected(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	svc := newServiceSet(testDB.DB)

	user, account, err := SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)

	_, err = svc.Transfer.Transfer(ctx, actorFor(user), account.AccountNumber, decimal.RequireFromString("10.00"), "127.0.0.1")
	require.ErrorIs(t, err, models.ErrSelfTransfer)

	balance, err := AccountBalance(ctx, testDB.DB, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100.00")))
}
