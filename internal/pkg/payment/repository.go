package payment

import (
	"github.com/audira/commerce-service/app/models"
	"github.com/audira/commerce-service/app/repository"
	"gorm.io/gorm"
)

// Repository provides the DB operations the payment service needs. The
// transactional success path runs against the Repository handed to the
// WithinTransaction callback; everything else runs autocommit.
type Repository interface {
	CreatePayment(p *models.Payment) error
	SavePayment(p *models.Payment) error
	GetPaymentByID(id uint) (*models.Payment, error)
	GetPaymentByTransactionID(transactionID string) (*models.Payment, error)
	ListPaymentsByUserID(userID uint) ([]models.Payment, error)
	ListPaymentsByOrderID(orderID uint) ([]models.Payment, error)
	MarkPaymentRetrying(id uint) (bool, error)
	GetOrder(id uint) (*models.Order, error)
	SaveOrder(o *models.Order) error
	GrantOrderToLibrary(order *models.Order, paymentID uint) error
	WithinTransaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) GetPaymentByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListPaymentsByUserID(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *gormRepository) ListPaymentsByOrderID(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// MarkPaymentRetrying flips a FAILED payment back to PROCESSING, increments the
// retry counter and clears the error message in one guarded UPDATE. The status
// guard makes concurrent retries on the same stale FAILED observation admit at
// most one winner; the losers see false.
func (r *gormRepository) MarkPaymentRetrying(id uint) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusFailed).
		Updates(map[string]interface{}{
			"status":        models.PaymentStatusProcessing,
			"error_message": nil,
			"retry_count":   gorm.Expr("retry_count + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) SaveOrder(o *models.Order) error {
	return r.db.Omit("Items").Save(o).Error
}

// GrantOrderToLibrary adds every item of the order to the buyer's library,
// tagged with the payment id. The library repository is built on r.db so the
// grant joins the surrounding transaction when one is active.
func (r *gormRepository) GrantOrderToLibrary(order *models.Order, paymentID uint) error {
	items := make([]models.LibraryItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.LibraryItem{
			UserID:    order.UserID,
			ItemID:    item.ItemID,
			ItemType:  item.ItemType,
			PaymentID: paymentID,
		})
	}
	return repository.NewLibraryRepository(r.db).GrantItems(items)
}

func (r *gormRepository) WithinTransaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
