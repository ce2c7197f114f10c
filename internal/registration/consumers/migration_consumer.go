package consumers

import (
	"context"
	"fmt"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/registration/repository"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/messaging"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// MigrationEventHandler applies legacy-system dossier imports (testable
// without RabbitMQ)
type MigrationEventHandler struct {
	dossierRepo *repository.DossierRepository
	logger      *logger.Logger
}

// NewMigrationEventHandler creates a new handler for testing purposes
func NewMigrationEventHandler(dossierRepo *repository.DossierRepository, log *logger.Logger) *MigrationEventHandler {
	return &MigrationEventHandler{
		dossierRepo: dossierRepo,
		logger:      log,
	}
}

// HandleDossierMigrated translates the legacy status and moves the
// dossier to it. Wire data is validated against the known legacy
// values before translation; an unknown value is a poison message, not
// a programming error, so it is rejected with an error instead of the
// translator's panic.
func (h *MigrationEventHandler) HandleDossierMigrated(ctx context.Context, event *messaging.Event) error {
	var data messaging.DossierMigratedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal DossierMigratedEvent")
		return err
	}

	if data.TenantID == "" {
		return fmt.Errorf("missing tenant context in dossier.migrated event")
	}

	log := h.logger.WithRegistration(data.RegistrationNumber)

	legacy := domain.LegacyDossierStatus(data.LegacyStatus)
	if !legacyStatusKnown(legacy) {
		log.Error().
			Str("legacy_status", data.LegacyStatus).
			Msg("unknown legacy dossier status in migration event")
		return fmt.Errorf("unknown legacy dossier status %q", data.LegacyStatus)
	}

	status := legacy.Translate()

	log.Info().
		Str("legacy_status", data.LegacyStatus).
		Str("status", string(status)).
		Msg("applying migrated dossier status")

	ctx = tenant.WithTenantID(ctx, data.TenantID)
	return h.dossierRepo.UpdateStatus(ctx, data.RegistrationNumber, data.Disease, status)
}

func legacyStatusKnown(s domain.LegacyDossierStatus) bool {
	for _, known := range domain.AllLegacyDossierStatuses {
		if known == s {
			return true
		}
	}
	return false
}

// MigrationEventConsumer consumes legacy-import events
type MigrationEventConsumer struct {
	consumer *messaging.Consumer
	handler  *MigrationEventHandler
	logger   *logger.Logger
}

// NewMigrationEventConsumer creates a new migration event consumer
func NewMigrationEventConsumer(rmq *messaging.RabbitMQ, dossierRepo *repository.DossierRepository, log *logger.Logger) (*MigrationEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "booking-service.migration-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeRegistrationEvents, messaging.EventDossierMigrated); err != nil {
		return nil, err
	}

	handler := NewMigrationEventHandler(dossierRepo, log)
	consumer.RegisterHandler(messaging.EventDossierMigrated, handler.HandleDossierMigrated)

	return &MigrationEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *MigrationEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
