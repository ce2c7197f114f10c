package events

import (
	"context"
	"time"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/httputil"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/messaging"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// RegistrationEventPublisher publishes booking and status events
type RegistrationEventPublisher struct {
	publisher      *messaging.Publisher
	auditPublisher *messaging.Publisher
	logger         *logger.Logger
}

// NewRegistrationEventPublisher creates a new registration event publisher
func NewRegistrationEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*RegistrationEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeRegistrationEvents, "booking-service", log)
	if err != nil {
		return nil, err
	}

	auditPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAuditEvents, "booking-service", log)
	if err != nil {
		return nil, err
	}

	return &RegistrationEventPublisher{
		publisher:      publisher,
		auditPublisher: auditPublisher,
		logger:         log,
	}, nil
}

// PublishAppointmentBooked publishes an appointment booked event
func (p *RegistrationEventPublisher) PublishAppointmentBooked(ctx context.Context, dossier *domain.Dossier, locationID string) {
	tenantID, _ := tenant.TenantID(ctx)

	data := messaging.AppointmentBookedEvent{
		RegistrationNumber: dossier.RegistrationNumber,
		Disease:            dossier.Disease,
		Status:             string(dossier.Status),
		LocationID:         locationID,
		TenantID:           tenantID,
	}
	if dossier.Slot1 != nil {
		data.Slot1Start = &dossier.Slot1.Start
	}
	if dossier.Slot2 != nil {
		data.Slot2Start = &dossier.Slot2.Start
	}
	if dossier.SlotBooster != nil {
		data.BoosterSlotStart = &dossier.SlotBooster.Start
	}

	if err := p.publisher.Publish(ctx, messaging.EventAppointmentBooked, data); err != nil {
		p.logger.Error().Err(err).
			Str("registration_number", dossier.RegistrationNumber).
			Msg("failed to publish appointment booked event")
	}
}

// PublishAppointmentCancelled publishes an appointment cancelled event
func (p *RegistrationEventPublisher) PublishAppointmentCancelled(ctx context.Context, registrationNumber, disease string) {
	tenantID, _ := tenant.TenantID(ctx)

	data := messaging.AppointmentCancelledEvent{
		RegistrationNumber: registrationNumber,
		Disease:            disease,
		TenantID:           tenantID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAppointmentCancelled, data); err != nil {
		p.logger.Error().Err(err).
			Str("registration_number", registrationNumber).
			Msg("failed to publish appointment cancelled event")
	}
}

// PublishStatusChanged publishes a status changed event
func (p *RegistrationEventPublisher) PublishStatusChanged(ctx context.Context, registrationNumber, disease string, oldStatus, newStatus domain.RegistrationStatus) {
	tenantID, _ := tenant.TenantID(ctx)

	data := messaging.StatusChangedEvent{
		RegistrationNumber: registrationNumber,
		Disease:            disease,
		OldStatus:          string(oldStatus),
		NewStatus:          string(newStatus),
		TenantID:           tenantID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStatusChanged, data); err != nil {
		p.logger.Error().Err(err).
			Str("registration_number", registrationNumber).
			Msg("failed to publish status changed event")
	}
}

// PublishAuditLog publishes an audit trail entry for a booking action.
// The actor is the authenticated portal user when available.
func (p *RegistrationEventPublisher) PublishAuditLog(ctx context.Context, action, registrationNumber string) {
	tenantID, _ := tenant.TenantID(ctx)

	data := messaging.AuditLogEvent{
		ActorID:            httputil.GetUserID(ctx),
		Action:             action,
		RegistrationNumber: registrationNumber,
		Timestamp:          time.Now().UTC(),
		TenantID:           tenantID,
	}

	if err := p.auditPublisher.Publish(ctx, messaging.EventAuditLogCreated, data); err != nil {
		p.logger.Error().Err(err).
			Str("registration_number", registrationNumber).
			Msg("failed to publish audit log event")
	}
}
