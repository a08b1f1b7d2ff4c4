package repository

import (
	"errors"

	"github.com/chogo-next/internal/models"

	"gorm.io/gorm"
)

// WalletRepository wallet data access
type WalletRepository interface {
	GetAccountByUserID(userID uint) (*models.WalletAccount, error)
	CreateAccount(account *models.WalletAccount) error
	Debit(accountID uint, amount models.Money) (bool, error)
	Credit(accountID uint, amount models.Money) error
	CreateTransaction(txn *models.WalletTransaction) error
	ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// WalletTransactionListFilter wallet movement listing filter
type WalletTransactionListFilter struct {
	UserID   uint
	Type     string
	Page     int
	PageSize int
}

// GormWalletRepository GORM implementation
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates the wallet repository
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx binds a transaction
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// GetAccountByUserID fetches a user's wallet account
func (r *GormWalletRepository) GetAccountByUserID(userID uint) (*models.WalletAccount, error) {
	var account models.WalletAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount inserts a wallet account
func (r *GormWalletRepository) CreateAccount(account *models.WalletAccount) error {
	return r.db.Create(account).Error
}

// Debit takes amount from the balance. The balance guard rejects overdrafts:
// no row matches when funds are short and the caller sees false.
func (r *GormWalletRepository) Debit(accountID uint, amount models.Money) (bool, error) {
	result := r.db.Model(&models.WalletAccount{}).
		Where("id = ?", accountID).
		Where("balance >= ?", amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Credit adds amount to the balance
func (r *GormWalletRepository) Credit(accountID uint, amount models.Money) error {
	return r.db.Model(&models.WalletAccount{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error
}

// CreateTransaction appends a balance movement record
func (r *GormWalletRepository) CreateTransaction(txn *models.WalletTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactions fetches balance movements
func (r *GormWalletRepository) ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	var txns []models.WalletTransaction
	query := r.db.Model(&models.WalletTransaction{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
