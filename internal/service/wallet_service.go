package service

import (
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService stored-value balance operations. Every movement writes a
// signed WalletTransaction row next to the balance change.
type WalletService struct {
	walletRepo repository.WalletRepository
	currency   string
}

// NewWalletService creates the wallet service
func NewWalletService(walletRepo repository.WalletRepository, currency string) *WalletService {
	return &WalletService{walletRepo: walletRepo, currency: currency}
}

// ensureAccount fetches the user's account, creating an empty one on first use.
func (s *WalletService) ensureAccount(repo *repository.GormWalletRepository, userID uint) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:   userID,
		Balance:  models.NewMoneyFromDecimal(decimal.Zero),
		Currency: s.currency,
	}
	if err := repo.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// DebitForOrder charges the order's grand total against the buyer's balance.
// The debit is a guarded update, so two concurrent checkouts cannot spend the
// same balance twice.
func (s *WalletService) DebitForOrder(tx *gorm.DB, order *models.Order) error {
	repo := s.walletRepo.WithTx(tx)
	account, err := s.ensureAccount(repo, order.UserID)
	if err != nil {
		return err
	}
	ok, err := repo.Debit(account.ID, order.GrandTotal)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWalletInsufficient
	}
	after, err := repo.GetAccountByUserID(order.UserID)
	if err != nil {
		return err
	}
	orderID := order.ID
	txn := &models.WalletTransaction{
		WalletID:     account.ID,
		UserID:       order.UserID,
		Type:         constants.WalletTxnTypeOrderPayment,
		Amount:       models.NewMoneyFromDecimal(order.GrandTotal.Neg()),
		BalanceAfter: after.Balance,
		OrderID:      &orderID,
		Note:         order.OrderNo,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return err
	}
	logger.Infow("wallet_debited",
		"user_id", order.UserID,
		"order_no", order.OrderNo,
		"amount", order.GrandTotal.String(),
	)
	return nil
}

// CreditRefund returns money to the buyer's balance for a refunded order.
func (s *WalletService) CreditRefund(tx *gorm.DB, userID uint, amount models.Money, orderID uint, note string) error {
	repo := s.walletRepo.WithTx(tx)
	account, err := s.ensureAccount(repo, userID)
	if err != nil {
		return err
	}
	if err := repo.Credit(account.ID, amount); err != nil {
		return err
	}
	after, err := repo.GetAccountByUserID(userID)
	if err != nil {
		return err
	}
	oid := orderID
	txn := &models.WalletTransaction{
		WalletID:     account.ID,
		UserID:       userID,
		Type:         constants.WalletTxnTypeOrderRefund,
		Amount:       amount,
		BalanceAfter: after.Balance,
		OrderID:      &oid,
		Note:         note,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return err
	}
	logger.Infow("wallet_refunded",
		"user_id", userID,
		"order_id", orderID,
		"amount", amount.String(),
	)
	return nil
}

// TopUp adds funds to the user's balance.
func (s *WalletService) TopUp(userID uint, amount models.Money, note string) error {
	if amount.Decimal.Sign() <= 0 {
		return ErrQuantityInvalid
	}
	return models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		account, err := s.ensureAccount(repo, userID)
		if err != nil {
			return err
		}
		if err := repo.Credit(account.ID, amount); err != nil {
			return err
		}
		after, err := repo.GetAccountByUserID(userID)
		if err != nil {
			return err
		}
		return repo.CreateTransaction(&models.WalletTransaction{
			WalletID:     account.ID,
			UserID:       userID,
			Type:         constants.WalletTxnTypeTopUp,
			Amount:       amount,
			BalanceAfter: after.Balance,
			Note:         note,
		})
	})
}

// GetBalance returns the user's account, creating it on first read.
func (s *WalletService) GetBalance(userID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	created := &models.WalletAccount{
		UserID:   userID,
		Balance:  models.NewMoneyFromDecimal(decimal.Zero),
		Currency: s.currency,
	}
	if err := s.walletRepo.CreateAccount(created); err != nil {
		return nil, err
	}
	return created, nil
}

// ListTransactions lists the user's balance movements, newest first.
func (s *WalletService) ListTransactions(userID uint, page, pageSize int) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(repository.WalletTransactionListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}
