package midtrans

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/entities"
	"Receiptify-Backend/internal/utils"
	"Receiptify-Backend/internal/utils/mailing"
	"Receiptify-Backend/pkg/credit"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
)

type (
	MidtransService interface {
		BuyCredits(ctx context.Context, req domain.BuyCreditsRequest, userID string) (*domain.BuyCreditsResponse, error)
		HandleNotification(ctx context.Context, orderID string) error
	}

	midtransService struct {
		midtransRepository MidtransRepository
		creditRepository   credit.CreditRepository
		creditService      credit.CreditService
		snapClient         snap.Client
		coreClient         coreapi.Client
	}
)

func NewMidtransService(
	midtransRepository MidtransRepository,
	creditRepository credit.CreditRepository,
	creditService credit.CreditService,
) MidtransService {
	env := midtrans.Sandbox
	if utils.GetConfig("IsProd") == "true" {
		env = midtrans.Production
	}

	serverKey := utils.GetConfig("SERVER_KEY")

	var snapClient snap.Client
	snapClient.New(serverKey, env)

	var coreClient coreapi.Client
	coreClient.New(serverKey, env)

	return &midtransService{
		midtransRepository: midtransRepository,
		creditRepository:   creditRepository,
		creditService:      creditService,
		snapClient:         snapClient,
		coreClient:         coreClient,
	}
}

func (s *midtransService) BuyCredits(ctx context.Context, req domain.BuyCreditsRequest, userID string) (*domain.BuyCreditsResponse, error) {
	pkg, err := s.creditRepository.GetCreditPackageByID(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCreditPackage
		}
		return nil, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	orderID := fmt.Sprintf("credits-%s", uuid.New().String())
	grossAmount := int64(pkg.Price)

	record := &entities.PaymentRecord{
		ID:        uuid.New(),
		OrderID:   orderID,
		UserID:    userUUID,
		PackageID: pkg.ID,
		Credits:   pkg.Credits,
		Amount:    grossAmount,
		Status:    entities.PaymentStatusPending,
	}
	if err := s.creditRepository.CreatePaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: req.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    pkg.ID.String(),
				Name:  pkg.Name,
				Price: grossAmount,
				Qty:   1,
			},
		},
	}

	snapResp, snapErr := s.snapClient.CreateTransaction(snapReq)
	if snapErr != nil {
		_ = s.creditRepository.MarkPaymentFailed(ctx, orderID)
		return nil, domain.ErrPaymentFailed
	}

	return &domain.BuyCreditsResponse{
		OrderID:    orderID,
		InvoiceURL: snapResp.RedirectURL,
	}, nil
}

// HandleNotification processes a midtrans webhook for the given order. The
// transaction status is always re-checked against the midtrans API rather
// than trusted from the webhook body.
func (s *midtransService) HandleNotification(ctx context.Context, orderID string) error {
	record, err := s.creditRepository.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidCreditPackage
		}
		return err
	}

	status, statusErr := s.coreClient.CheckTransaction(orderID)
	if statusErr != nil {
		return domain.ErrPaymentFailed
	}

	switch status.TransactionStatus {
	case "settlement", "capture":
		if status.FraudStatus != "" && status.FraudStatus != "accept" {
			return nil
		}

		settled, err := s.creditRepository.MarkPaymentSettled(ctx, orderID)
		if err != nil {
			return err
		}
		if !settled {
			// Webhook retry for an order we already credited.
			return nil
		}

		reason := fmt.Sprintf("Purchased %d credits (order %s)", record.Credits, orderID)
		if err := s.creditService.Credit(ctx, record.UserID.String(), record.Credits, entities.CreditTxPurchase, reason); err != nil {
			return err
		}

		s.sendPurchaseConfirmation(ctx, record)
	case "deny", "cancel", "expire":
		return s.creditRepository.MarkPaymentFailed(ctx, orderID)
	}

	return nil
}

func (s *midtransService) sendPurchaseConfirmation(ctx context.Context, record *entities.PaymentRecord) {
	user, err := s.midtransRepository.GetUserByID(ctx, record.UserID.String())
	if err != nil {
		log.Printf("failed to load user %s for purchase confirmation: %v", record.UserID, err)
		return
	}

	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your purchase of %d credits has been confirmed. Happy scanning!</p>",
		user.Name, record.Credits,
	)
	if err := mailing.SendMail(user.Email, "Credit purchase confirmed", body); err != nil {
		log.Printf("failed to send purchase confirmation to %s: %v", user.Email, err)
	}
}
