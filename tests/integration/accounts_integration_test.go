package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvault/ironvault/internal/models"
)

func TestManagerAccountsView(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	server := NewTestServer(testDB.DB)
	defer server.Close()

	managerEmail, managerPassword := TestCredentials("manager")
	_, err := SeedUser(ctx, testDB.Pool, "Manager", managerEmail, managerPassword, models.RoleManager)
	require.NoError(t, err)

	_, _, err = SeedCustomer(ctx, testDB.Pool, "alice", "100.00")
	require.NoError(t, err)
	_, _, err = SeedCustomer(ctx, testDB.Pool, "bob", "50.00")
	require.NoError(t, err)

	token, err := server.Login(managerEmail, managerPassword)
	require.NoError(t, err)

	resp, err := server.RequestWithAuth(http.MethodGet, "/api/manager/accounts", token, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var accounts []struct {
		AccountNumber string `json:"account_number"`
		Balance       string `json:"balance"`
		OwnerName     string `json:"owner_name"`
		OwnerEmail    string `json:"owner_email"`
	}
	require.NoError(t, ParseJSONResponse(resp, &accounts))
	require.Len(t, accounts, 2, "manager view lists customer accounts only, not the manager")
	for _, account := range accounts {
		assert.NotEmpty(t, account.OwnerName)
		assert.NotEmpty(t, account.OwnerEmail)
	}
}

func TestManagerAccountsView_ForbiddenForCustomer(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	server := NewTestServer(testDB.DB)
	defer server.Close()

	email, password := TestCredentials("customer")
	_, err := SeedUser(ctx, testDB.Pool, "Customer", email, password, models.RoleCustomer)
	require.NoError(t, err)

	token, err := server.Login(email, password)
	require.NoError(t, err)

	resp, err := server.RequestWithAuth(http.MethodGet, "/api/manager/accounts", token, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTransactions_DirectionFollowsActor(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	server := NewTestServer(testDB.DB)
	defer server.Close()
	svc := newServiceSet(testDB.DB)

	aliceEmail, alicePassword := TestCredentials("alice")
	alice, err := SeedUser(ctx, testDB.Pool, "Alice", aliceEmail, alicePassword, models.RoleCustomer)
	require.NoError(t, err)
	_, err = SeedAccount(ctx, testDB.Pool, alice.ID, "100.00")
	require.NoError(t, err)

	bobEmail, bobPassword := TestCredentials("bob")
	bob, err := SeedUser(ctx, testDB.Pool, "Bob", bobEmail, bobPassword, models.RoleCustomer)
	require.NoError(t, err)
	bobAccount, err := SeedAccount(ctx, testDB.Pool, bob.ID, "0.00")
	require.NoError(t, err)

	_, err = svc.Transfer.Transfer(ctx, actorFor(alice), bobAccount.AccountNumber, decimal.RequireFromString("40.00"), "127.0.0.1")
	require.NoError(t, err)

	fetchDirections := func(email, password string) []string {
		token, err := server.Login(email, password)
		require.NoError(t, err)

		resp, err := server.RequestWithAuth(http.MethodGet, "/api/transactions", token, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var txns []struct {
			Direction string `json:"direction"`
		}
		require.NoError(t, ParseJSONResponse(resp, &txns))
		directions := make([]string, 0, len(txns))
		for _, txn := range txns {
			directions = append(directions, txn.Direction)
		}
		return directions
	}

	assert.Equal(t, []string{models.DirectionDebit}, fetchDirections(aliceEmail, alicePassword),
		"the sender sees the transfer as a debit")
	assert.Equal(t, []string{models.DirectionCredit}, fetchDirections(bobEmail, bobPassword),
		"the receiver sees the transfer as a credit")
}
