package receipt

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/entities"
	"Receiptify-Backend/internal/utils/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ReceiptService interface {
		UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error)
		GetReceiptByID(ctx context.Context, id string, userID string) (domain.ReceiptResponse, error)
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		s3                storage.AwsS3
	}
)

func NewReceiptService(receiptRepository ReceiptRepository, s3 storage.AwsS3) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		s3:                s3,
	}
}

func (s *receiptService) UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.UploadReceiptResponse{}, domain.ErrParseUUID
	}

	documentType := req.DocumentType
	if documentType == "" {
		documentType = entities.DocumentTypeGeneric
	}

	receiptID := uuid.New()
	fileName := fmt.Sprintf("receipt-%s", receiptID.String())
	objectKey, err := s.s3.UploadFile(fileName, req.ReceiptFile, "receipts", storage.AllowDocument...)
	if err != nil {
		if errors.Is(err, storage.ErrFileTypeNotAllowed) {
			return domain.UploadReceiptResponse{}, domain.ErrInvalidFileFormat
		}
		return domain.UploadReceiptResponse{}, err
	}

	receipt := &entities.Receipt{
		ID:               receiptID,
		UserID:           userUUID,
		StoragePath:      objectKey,
		FileName:         req.ReceiptFile.Filename,
		MimeType:         req.ReceiptFile.Header.Get("Content-Type"),
		FileSize:         req.ReceiptFile.Size,
		DocumentType:     documentType,
		ProcessingStatus: entities.ReceiptStatusPending,
	}

	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return domain.UploadReceiptResponse{}, err
	}

	return domain.UploadReceiptResponse{
		ID:               receipt.ID.String(),
		FileName:         receipt.FileName,
		DocumentType:     receipt.DocumentType,
		ProcessingStatus: receipt.ProcessingStatus,
	}, nil
}

func (s *receiptService) GetReceiptByID(ctx context.Context, id string, userID string) (domain.ReceiptResponse, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptResponse{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptResponse{}, err
	}

	if receipt.UserID.String() != userID {
		return domain.ReceiptResponse{}, domain.ErrNotReceiptOwner
	}

	return ToReceiptResponse(receipt), nil
}

func (s *receiptService) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error) {
	receipts, count, err := s.receiptRepository.GetReceipts(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		response = append(response, ToReceiptResponse(r))
	}

	return response, count, nil
}

// ToReceiptResponse maps a receipt row to its API shape. The attribute bag is
// decoded back into a map but its contents stay uninterpreted.
func ToReceiptResponse(receipt *entities.Receipt) domain.ReceiptResponse {
	res := domain.ReceiptResponse{
		ID:               receipt.ID.String(),
		FileName:         receipt.FileName,
		DocumentType:     receipt.DocumentType,
		ProcessingStatus: receipt.ProcessingStatus,
		ProcessingError:  receipt.ProcessingError,
		MerchantName:     receipt.MerchantName,
		Total:            receipt.Total,
		CurrencyCode:     receipt.CurrencyCode,
		Category:         receipt.Category,
		Tax:              receipt.Tax,
		PaymentMethod:    receipt.PaymentMethod,
		ConfidenceScore:  receipt.ConfidenceScore,
		CreatedAt:        receipt.CreatedAt,
	}

	if receipt.TxDate != nil {
		txDate := receipt.TxDate.Format("2006-01-02")
		res.TxDate = &txDate
	}

	if receipt.Attributes != "" {
		var attributes map[string]any
		if err := json.Unmarshal([]byte(receipt.Attributes), &attributes); err == nil {
			res.Attributes = attributes
		}
	}

	return res
}
