package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/jobs"
)

func TestContactServiceSubmit(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewContactService(notifier, nil, zap.NewNop())

	msg, err := svc.Submit(context.Background(), models.ContactRequest{Name: " Erika ", Email: "erika@example.com", Message: "Ich habe eine Frage zum Kurs."})
	require.NoError(t, err)
	assert.Equal(t, i18n.Message(i18n.MsgContactSent), msg)
	require.Len(t, notifier.contacts, 1)
	assert.Equal(t, "Erika", notifier.contacts[0].Name)
}

func TestContactServiceValidation(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewContactService(notifier, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), models.ContactRequest{Name: "E", Email: "nope", Message: "kurz"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, notifier.contacts)
}

func TestContactServiceDeliveryFailures(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("provider down")}
	svc := NewContactService(notifier, nil, zap.NewNop())
	req := models.ContactRequest{Name: "Erika", Email: "erika@example.com", Message: "Ich habe eine Frage zum Kurs."}

	_, err := svc.Submit(context.Background(), req)
	assert.NoError(t, err)

	notifier.err = fmt.Errorf("queue email: %w", jobs.ErrQueueFull)
	_, err = svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrRateLimited)
}
