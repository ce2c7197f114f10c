package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Registration / booking events
	EventAppointmentBooked    = "registration.appointment.booked"
	EventAppointmentCancelled = "registration.appointment.cancelled"
	EventStatusChanged        = "registration.status.changed"
	EventAddressUpdated       = "registration.address.updated"
	EventDossierMigrated      = "registration.dossier.migrated"

	// Audit events
	EventAuditLogCreated = "audit.log.created"
)

// Exchange names
const (
	ExchangeRegistrationEvents = "registration.events"
	ExchangeAuditEvents        = "audit.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Registration events

// AppointmentBookedEvent is published when a registrant's appointment
// slots are confirmed.
type AppointmentBookedEvent struct {
	RegistrationNumber string     `json:"registration_number"`
	Disease            string     `json:"disease"`
	Status             string     `json:"status"`
	LocationID         string     `json:"location_id"`
	Slot1Start         *time.Time `json:"slot1_start,omitempty"`
	Slot2Start         *time.Time `json:"slot2_start,omitempty"`
	BoosterSlotStart   *time.Time `json:"booster_slot_start,omitempty"`

	// Tenant context: the canton the dossier belongs to
	TenantID string `json:"tenant_id"`
}

// AppointmentCancelledEvent is published when booked slots are released.
type AppointmentCancelledEvent struct {
	RegistrationNumber string `json:"registration_number"`
	Disease            string `json:"disease"`
	TenantID           string `json:"tenant_id"`
}

// StatusChangedEvent is published when a dossier progresses to a new
// registration status.
type StatusChangedEvent struct {
	RegistrationNumber string `json:"registration_number"`
	Disease            string `json:"disease"`
	OldStatus          string `json:"old_status"`
	NewStatus          string `json:"new_status"`
	TenantID           string `json:"tenant_id"`
}

// AddressUpdatedEvent is published (by the registration-data service)
// when a registrant's postal address changes. Consumers must drop any
// address-derived state such as cached geocoded distances.
type AddressUpdatedEvent struct {
	RegistrationNumber string `json:"registration_number"`
	TenantID           string `json:"tenant_id"`
}

// DossierMigratedEvent is published by the migration pipeline for each
// dossier imported from the legacy single-disease system. The status is
// the legacy enum value and must be translated before use.
type DossierMigratedEvent struct {
	RegistrationNumber string `json:"registration_number"`
	Disease            string `json:"disease"`
	LegacyStatus       string `json:"legacy_status"`
	TenantID           string `json:"tenant_id"`
}

// Audit events

// AuditLogEvent is published for audit-relevant actions
type AuditLogEvent struct {
	ActorID            string    `json:"actor_id"`
	Action             string    `json:"action"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	TenantID           string    `json:"tenant_id"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
