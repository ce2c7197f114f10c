package consumers

import (
	"context"

	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/messaging"
)

// AddressEventHandler invalidates address-derived state (testable
// without RabbitMQ)
type AddressEventHandler struct {
	distanceCache *distance.Cache
	logger        *logger.Logger
}

// NewAddressEventHandler creates a new handler for testing purposes
func NewAddressEventHandler(cache *distance.Cache, log *logger.Logger) *AddressEventHandler {
	return &AddressEventHandler{
		distanceCache: cache,
		logger:        log,
	}
}

// HandleAddressUpdated drops the distance cache: the cached origin
// coordinate may belong to the old address, and the next location
// listing must geocode afresh.
func (h *AddressEventHandler) HandleAddressUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.AddressUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal AddressUpdatedEvent")
		return err
	}

	h.logger.WithRegistration(data.RegistrationNumber).Info().
		Msg("registrant address changed, clearing distance cache")

	h.distanceCache.Clear()
	return nil
}

// AddressEventConsumer consumes address events to keep the distance
// cache honest
type AddressEventConsumer struct {
	consumer *messaging.Consumer
	handler  *AddressEventHandler
	logger   *logger.Logger
}

// NewAddressEventConsumer creates a new address event consumer
func NewAddressEventConsumer(rmq *messaging.RabbitMQ, cache *distance.Cache, log *logger.Logger) (*AddressEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "booking-service.address-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeRegistrationEvents, messaging.EventAddressUpdated); err != nil {
		return nil, err
	}

	handler := NewAddressEventHandler(cache, log)
	consumer.RegisterHandler(messaging.EventAddressUpdated, handler.HandleAddressUpdated)

	return &AddressEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *AddressEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
