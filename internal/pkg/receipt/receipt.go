package receipt

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/audira/commerce-service/app/models"
	"github.com/audira/commerce-service/app/repository"
	"github.com/audira/commerce-service/internal/pkg/clients"
	"github.com/audira/commerce-service/internal/pkg/payment"
)

// Line is one purchased item on a receipt.
type Line struct {
	ItemID   uint   `json:"item_id"`
	ItemType string `json:"item_type"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// Receipt is the buyer-facing summary of a completed payment.
type Receipt struct {
	TransactionID string     `json:"transaction_id"`
	OrderNumber   string     `json:"order_number"`
	PaymentMethod string     `json:"payment_method"`
	BuyerName     string     `json:"buyer_name,omitempty"`
	BuyerEmail    string     `json:"buyer_email,omitempty"`
	Lines         []Line     `json:"lines"`
	Total         int64      `json:"total"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PaymentLookup resolves settled payments by their transaction id.
type PaymentLookup interface {
	GetPaymentByTransactionID(transactionID string) (*payment.PaymentDTO, error)
}

// UserLookup resolves buyer profiles; receipt building degrades gracefully
// when the user service is unreachable.
type UserLookup interface {
	GetUserByID(userID uint) (*clients.UserDTO, error)
}

// TitleLookup resolves display titles for order lines that were stored
// without one.
type TitleLookup interface {
	GetSongByID(songID uint) map[string]interface{}
	GetAlbumByID(albumID uint) map[string]interface{}
}

// Service builds receipts for completed payments.
type Service struct {
	payments PaymentLookup
	orders   repository.OrderRepository
	users    UserLookup
	catalog  TitleLookup
}

// NewService creates a receipt service.
func NewService(payments PaymentLookup, orders repository.OrderRepository, users UserLookup, catalog TitleLookup) *Service {
	return &Service{
		payments: payments,
		orders:   orders,
		users:    users,
		catalog:  catalog,
	}
}

// Build assembles the receipt for a completed payment, looked up by its
// transaction id. Non-completed payments have no receipt.
func (s *Service) Build(transactionID string) (*Receipt, error) {
	dto, err := s.payments.GetPaymentByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if dto.Status != models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: receipts exist only for completed payments, transaction %s is %s",
			payment.ErrInvalidStateTransition, transactionID, dto.Status)
	}

	order, err := s.orders.GetByID(dto.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", dto.OrderID, err)
	}

	receipt := &Receipt{
		TransactionID: dto.TransactionID,
		OrderNumber:   order.OrderNumber,
		PaymentMethod: dto.PaymentMethod,
		Total:         dto.Amount,
		CompletedAt:   dto.CompletedAt,
	}

	if user, err := s.users.GetUserByID(dto.UserID); err != nil {
		log.Warnf("[Receipt] Could not resolve buyer %d: %v", dto.UserID, err)
	} else {
		receipt.BuyerName = fmt.Sprintf("%s %s", user.FirstName, user.LastName)
		receipt.BuyerEmail = user.Email
	}

	for _, item := range order.Items {
		line := Line{
			ItemID:   item.ItemID,
			ItemType: item.ItemType,
			Title:    item.Title,
			Price:    item.Price,
		}
		if line.Title == "" {
			line.Title = s.lookupTitle(item)
		}
		receipt.Lines = append(receipt.Lines, line)
	}

	return receipt, nil
}

func (s *Service) lookupTitle(item models.OrderItem) string {
	var meta map[string]interface{}
	switch item.ItemType {
	case models.OrderItemTypeAlbum:
		meta = s.catalog.GetAlbumByID(item.ItemID)
	default:
		meta = s.catalog.GetSongByID(item.ItemID)
	}
	if title, ok := meta["title"].(string); ok {
		return title
	}
	return ""
}
