package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/export"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/storage"
)

type receiptRenderer interface {
	Render(r export.Receipt) ([]byte, error)
}

type receiptStore interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type receiptSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (*storage.SignedToken, error)
}

// ReceiptConfig configures receipt links.
type ReceiptConfig struct {
	BaseURL    string
	APIPrefix  string
	SellerName string
	// Retention bounds how long stored PDFs are kept; zero keeps them forever.
	Retention time.Duration
}

// ReceiptInput is everything printed on a receipt.
type ReceiptInput struct {
	Payment  *models.Payment
	Profile  *models.Profile
	Course   *models.Course
	Schedule string
}

// IssuedReceipt is a rendered and stored receipt.
type IssuedReceipt struct {
	Number      string
	Filename    string
	Path        string
	PDF         []byte
	DownloadURL string
	ExpiresAt   time.Time
}

// ReceiptService renders PDF receipts, stores them and serves signed downloads.
type ReceiptService struct {
	renderer receiptRenderer
	store    receiptStore
	signer   receiptSigner
	config   ReceiptConfig
	logger   *zap.Logger
}

// NewReceiptService constructs a ReceiptService.
func NewReceiptService(renderer receiptRenderer, store receiptStore, signer receiptSigner, logger *zap.Logger, cfg ReceiptConfig) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SellerName == "" {
		cfg.SellerName = "CourseHub"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ReceiptService{renderer: renderer, store: store, signer: signer, config: cfg, logger: logger}
}

// Issue renders the receipt for a completed payment and returns a signed download link.
func (s *ReceiptService) Issue(ctx context.Context, in ReceiptInput) (*IssuedReceipt, error) {
	if in.Payment == nil || in.Profile == nil || in.Course == nil {
		return nil, errors.New("receipt needs payment, profile and course")
	}
	p := in.Payment
	paidAt := p.CreatedAt
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	number := ReceiptNumber(p.ID, paidAt)

	pdf, err := s.renderer.Render(export.Receipt{
		Number:        number,
		IssuedAt:      i18n.FormatDate(paidAt),
		Seller:        s.config.SellerName,
		CustomerName:  in.Profile.FullName,
		CustomerEmail: in.Profile.Email,
		CourseTitle:   in.Course.Title,
		Schedule:      in.Schedule,
		PaymentMethod: p.PaymentMethod,
		Amount:        i18n.FormatPrice(p.Amount, p.Currency),
		Reference:     p.StripePaymentIntentID,
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	filename := number + ".pdf"
	rel := path.Join(paidAt.UTC().Format("2006/01"), filename)
	if _, err := s.store.Save(rel, pdf); err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(p.ID, rel)
	if err != nil {
		return nil, fmt.Errorf("sign receipt link: %w", err)
	}

	return &IssuedReceipt{
		Number:      number,
		Filename:    filename,
		Path:        rel,
		PDF:         pdf,
		DownloadURL: s.downloadURL(token),
		ExpiresAt:   expiresAt,
	}, nil
}

// Open verifies a download token and returns the stored file.
func (s *ReceiptService) Open(ctx context.Context, token string) (string, []byte, error) {
	if strings.TrimSpace(token) == "" {
		return "", nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}
	signed, err := s.signer.Parse(token)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}
	data, err := s.store.Read(signed.Path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return "", nil, appErrors.WrapInternal(fmt.Errorf("read receipt: %w", err))
	}
	return path.Base(signed.Path), data, nil
}

// Cleanup deletes receipts older than the retention period.
func (s *ReceiptService) Cleanup(ctx context.Context) (int, error) {
	if s.config.Retention <= 0 {
		return 0, nil
	}
	removed, err := s.store.CleanupOlderThan(s.config.Retention)
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired receipts removed", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

func (s *ReceiptService) downloadURL(token string) string {
	return fmt.Sprintf("%s%s/receipts/download?token=%s", s.config.BaseURL, s.config.APIPrefix, url.QueryEscape(token))
}

// ReceiptNumber derives a stable human-readable number from the payment id.
func ReceiptNumber(paymentID string, paidAt time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(paymentID, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("RE-%s-%s", paidAt.UTC().Format("20060102"), short)
}
