package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/jobs"
)

type contactNotifier interface {
	SendContactNotification(ctx context.Context, data ContactEmail) error
}

// ContactService forwards contact form submissions to the support inbox.
type ContactService struct {
	notifier  contactNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService constructs a ContactService.
func NewContactService(notifier contactNotifier, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContactService{notifier: notifier, validator: validate, logger: logger}
}

// Submit validates and forwards a contact message. Delivery happens in the
// background; a full queue is the only failure reported to the caller.
func (s *ContactService) Submit(ctx context.Context, req models.ContactRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}

	err := s.notifier.SendContactNotification(ctx, ContactEmail{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if errors.Is(err, jobs.ErrQueueFull) {
		return "", appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, appErrors.ErrRateLimited.Message)
	}
	if err != nil {
		s.logger.Warn("contact message not forwarded", zap.Error(err))
	}
	return i18n.Message(i18n.MsgContactSent), nil
}
