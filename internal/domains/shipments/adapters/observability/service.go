package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

const tracerName = "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/observability/service"

// Service decorates the shipments application port with tracing, logging,
// and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Create registers a shipment with instrumentation.
func (s *Service) Create(ctx context.Context, input ports.CreateShipmentInput, creatorID string) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.Create", attribute.String("shipment.creator_id", creatorID))
	defer span.End()

	s.logInfo(ctx, "creating shipment", slog.String("creator.id", creatorID))
	result, err := s.inner.Create(ctx, input, creatorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create shipment", slog.String("creator.id", creatorID))
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "shipment created",
		slog.String("shipment.id", result.ID),
		slog.String("shipment.tracking_number", result.TrackingNumber))
	return result, nil
}

// GetByID loads a single shipment.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByID", attribute.String("shipment.id", id))
	defer span.End()

	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load shipment", slog.String("shipment.id", id))
	}
	return result, nil
}

// TrackByNumber resolves the public tracking lookup.
func (s *Service) TrackByNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.TrackByNumber", attribute.String("shipment.tracking_number", trackingNumber))
	defer span.End()

	result, err := s.inner.TrackByNumber(ctx, trackingNumber)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to track shipment", slog.String("shipment.tracking_number", trackingNumber))
	}
	s.metrics.recordTracked(ctx)
	return result, nil
}

// List returns shipments matching the filter.
func (s *Service) List(ctx context.Context, filter ports.ListFilter, actor ports.Actor) ([]*domain.Shipment, int64, error) {
	ctx, span := s.startSpan(ctx, "Service.List", attribute.String("actor.role", string(actor.Role)))
	defer span.End()

	result, total, err := s.inner.List(ctx, filter, actor)
	if err != nil {
		return nil, 0, s.handleError(ctx, span, err, "failed to list shipments")
	}
	span.SetAttributes(attribute.Int("shipment.result.count", len(result)))
	return result, total, nil
}

// DriverShipments returns the shipments assigned to one driver.
func (s *Service) DriverShipments(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.DriverShipments", attribute.String("driver.id", driverID))
	defer span.End()

	result, err := s.inner.DriverShipments(ctx, driverID, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list driver shipments", slog.String("driver.id", driverID))
	}
	span.SetAttributes(attribute.Int("shipment.result.count", len(result)))
	return result, nil
}

// Update applies descriptive field changes.
func (s *Service) Update(ctx context.Context, id string, fields ports.UpdateFields) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.Update", attribute.String("shipment.id", id))
	defer span.End()

	s.logInfo(ctx, "updating shipment", slog.String("shipment.id", id))
	result, err := s.inner.Update(ctx, id, fields)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update shipment", slog.String("shipment.id", id))
	}
	s.logInfo(ctx, "shipment updated", slog.String("shipment.id", id))
	return result, nil
}

// UpdateStatus applies one status transition with instrumentation.
func (s *Service) UpdateStatus(ctx context.Context, id string, input ports.UpdateStatusInput, actor ports.Actor) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateStatus",
		attribute.String("shipment.id", id),
		attribute.String("shipment.target_status", string(input.Status)),
		attribute.String("actor.role", string(actor.Role)),
	)
	defer span.End()

	s.logInfo(ctx, "transitioning shipment",
		slog.String("shipment.id", id),
		slog.String("target", string(input.Status)))
	result, err := s.inner.UpdateStatus(ctx, id, input, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to transition shipment",
			slog.String("shipment.id", id),
			slog.String("target", string(input.Status)))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "shipment transitioned",
		slog.String("shipment.id", result.ID),
		slog.String("status", string(result.Status)))
	return result, nil
}

// Deliver completes the delivery protocol with instrumentation.
func (s *Service) Deliver(ctx context.Context, id string, input ports.DeliverInput, actor ports.Actor) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.Deliver",
		attribute.String("shipment.id", id),
		attribute.String("actor.id", actor.ID),
	)
	defer span.End()

	s.logInfo(ctx, "delivering shipment", slog.String("shipment.id", id), slog.String("driver.id", actor.ID))
	result, err := s.inner.Deliver(ctx, id, input, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to deliver shipment", slog.String("shipment.id", id))
	}
	s.metrics.recordDelivered(ctx)
	s.logInfo(ctx, "shipment delivered", slog.String("shipment.id", result.ID))
	return result, nil
}

// AssignDriver couples the shipment to a driver with instrumentation.
func (s *Service) AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error) {
	ctx, span := s.startSpan(ctx, "Service.AssignDriver",
		attribute.String("shipment.id", id),
		attribute.String("driver.id", driverID),
	)
	defer span.End()

	s.logInfo(ctx, "assigning driver", slog.String("shipment.id", id), slog.String("driver.id", driverID))
	result, err := s.inner.AssignDriver(ctx, id, driverID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to assign driver",
			slog.String("shipment.id", id),
			slog.String("driver.id", driverID))
	}
	s.logInfo(ctx, "driver assigned", slog.String("shipment.id", result.ID), slog.String("driver.id", driverID))
	return result, nil
}

// Delete removes a shipment.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "Service.Delete", attribute.String("shipment.id", id))
	defer span.End()

	s.logInfo(ctx, "deleting shipment", slog.String("shipment.id", id))
	if err := s.inner.Delete(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete shipment", slog.String("shipment.id", id))
	}
	s.logInfo(ctx, "shipment deleted", slog.String("shipment.id", id))
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
	delivered   metric.Int64Counter
	tracked     metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("shipments.service.created", metric.WithDescription("Number of shipments created"))
	transitions, _ := m.Int64Counter("shipments.service.transitions", metric.WithDescription("Number of status transitions applied"))
	delivered, _ := m.Int64Counter("shipments.service.delivered", metric.WithDescription("Number of completed deliveries"))
	tracked, _ := m.Int64Counter("shipments.service.tracked", metric.WithDescription("Number of public tracking lookups"))
	return serviceMetrics{
		created:     created,
		transitions: transitions,
		delivered:   delivered,
		tracked:     tracked,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	addCounter(ctx, m.created, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("shipment.status", string(status)))
}

func (m serviceMetrics) recordDelivered(ctx context.Context) {
	addCounter(ctx, m.delivered, 1)
}

func (m serviceMetrics) recordTracked(ctx context.Context) {
	addCounter(ctx, m.tracked, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
