package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

var (
	// Registration counters
	RegistrationsCreated   *telemetry.Counter
	RegistrationsCancelled *telemetry.Counter
	RegistrationsFailed    *telemetry.Counter

	// Ticket request counters
	TicketRequestsSubmitted *telemetry.Counter
	TicketRequestsUpdated   *telemetry.Counter
	TicketRequestExports    *telemetry.Counter

	// Reconciliation
	CounterRepairs *telemetry.Counter

	// Histograms
	RequestDuration *telemetry.Histogram

	initOnce sync.Once
	initErr  error
)

// Init initializes all metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	RegistrationsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "event_registrations_total",
		Description: "Total number of event registrations created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RegistrationsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "event_registration_cancellations_total",
		Description: "Total number of registrations cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RegistrationsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "event_registration_failures_total",
		Description: "Total number of failed registration attempts by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketRequestsSubmitted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_requests_submitted_total",
		Description: "Total number of ticket requests submitted",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketRequestsUpdated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_request_status_updates_total",
		Description: "Total number of ticket request status updates",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketRequestExports, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_request_exports_total",
		Description: "Total number of ticket request exports by format",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CounterRepairs, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "attendee_counter_repairs_total",
		Description: "Total number of attendee counter corrections by reconciliation",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "rallyup_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	if err != nil {
		return err
	}

	return nil
}

// RecordRegistration records a successful registration
func RecordRegistration(ctx context.Context, eventID string) {
	if RegistrationsCreated != nil {
		RegistrationsCreated.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordCancellation records a registration cancellation
func RecordCancellation(ctx context.Context, eventID string) {
	if RegistrationsCancelled != nil {
		RegistrationsCancelled.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordRegistrationFailure records a failed registration attempt by reason
func RecordRegistrationFailure(ctx context.Context, eventID, reason string) {
	if RegistrationsFailed != nil {
		RegistrationsFailed.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordTicketRequestSubmitted records a submitted ticket request
func RecordTicketRequestSubmitted(ctx context.Context) {
	if TicketRequestsSubmitted != nil {
		TicketRequestsSubmitted.Inc(ctx)
	}
}

// RecordTicketRequestUpdate records status updates, bulk or single
func RecordTicketRequestUpdate(ctx context.Context, status string, count int64) {
	if TicketRequestsUpdated != nil {
		TicketRequestsUpdated.Add(ctx, count, attribute.String("status", status))
	}
}

// RecordExport records a ticket request export
func RecordExport(ctx context.Context, format string) {
	if TicketRequestExports != nil {
		TicketRequestExports.Inc(ctx, attribute.String("format", format))
	}
}

// RecordCounterRepair records counter corrections made by reconciliation
func RecordCounterRepair(ctx context.Context, count int64) {
	if CounterRepairs != nil {
		CounterRepairs.Add(ctx, count)
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds, attribute.String("operation", operation))
	}
}
