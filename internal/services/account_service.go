package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
)

// AccountService serves the read side of the ledger. All reads on behalf of
// an actor run with the actor's identity applied as ambient store context, so
// row-level filtering backs up the application-level ownership predicates.
type AccountService struct {
	db           Store
	accounts     AccountRepository
	transactions TransactionRepository
	logger       *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(db Store, accounts AccountRepository, transactions TransactionRepository, logger *slog.Logger) *AccountService {
	return &AccountService{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		logger:       logger,
	}
}

// ListAccounts returns the actor's own accounts
func (s *AccountService) ListAccounts(ctx context.Context, actor auth.Actor) ([]*models.Account, error) {
	if !auth.CanPerform(actor.Role, auth.ActionViewOwnAccounts) {
		return nil, models.ErrForbidden
	}

	var accounts []*models.Account
	err := s.db.WithActorTransaction(ctx, actorContext(actor), func(q database.Querier) error {
		var err error
		accounts, err = s.accounts.ListByUser(ctx, q, actor.ID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list accounts", slog.String("actor_id", actor.ID.String()), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return accounts, nil
}

// ListTransactions returns the actor's transaction history, newest first,
// with the Debit/Credit direction derived relative to the actor's own
// accounts.
func (s *AccountService) ListTransactions(ctx context.Context, actor auth.Actor) ([]*models.TransactionView, error) {
	if !auth.CanPerform(actor.Role, auth.ActionViewOwnAccounts) {
		return nil, models.ErrForbidden
	}

	var views []*models.TransactionView
	err := s.db.WithActorTransaction(ctx, actorContext(actor), func(q database.Querier) error {
		accounts, err := s.accounts.ListByUser(ctx, q, actor.ID)
		if err != nil {
			return err
		}

		owned := make(map[uuid.UUID]bool, len(accounts))
		for _, account := range accounts {
			owned[account.ID] = true
		}

		txns, err := s.transactions.ListByUser(ctx, q, actor.ID)
		if err != nil {
			return err
		}

		views = make([]*models.TransactionView, 0, len(txns))
		for _, txn := range txns {
			direction := models.DirectionCredit
			if txn.SenderAccountID != nil && owned[*txn.SenderAccountID] {
				direction = models.DirectionDebit
			}
			views = append(views, &models.TransactionView{
				ID:          txn.ID,
				Amount:      txn.Amount,
				Type:        txn.Type,
				Description: txn.Description,
				Direction:   direction,
				CreatedAt:   txn.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list transactions", slog.String("actor_id", actor.ID.String()), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return views, nil
}

// ListAllCustomerAccounts is the manager view over every customer account
func (s *AccountService) ListAllCustomerAccounts(ctx context.Context, actor auth.Actor) ([]*models.CustomerAccount, error) {
	if !auth.CanPerform(actor.Role, auth.ActionViewCustomerAccounts) {
		return nil, models.ErrForbidden
	}

	accounts, err := s.accounts.ListAllCustomerAccounts(ctx)
	if err != nil {
		s.logger.Error("failed to list customer accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return accounts, nil
}

func actorContext(actor auth.Actor) database.ActorContext {
	return database.ActorContext{
		ActorID: actor.ID.String(),
		Role:    string(actor.Role),
	}
}
