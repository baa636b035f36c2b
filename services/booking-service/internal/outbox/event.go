package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

// Event is the envelope written to the outbox table. The Kafka topic equals
// EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AppointmentCreated     = "booking.appointment.created.v1"
	AppointmentConfirmed   = "booking.appointment.confirmed.v1"
	AppointmentPaid        = "booking.appointment.paid.v1"
	AppointmentCanceled    = "booking.appointment.canceled.v1"
	AppointmentCompleted   = "booking.appointment.completed.v1"
	AppointmentRescheduled = "booking.appointment.rescheduled.v1"
	AppointmentUpdated     = "booking.appointment.updated.v1"
	AppointmentDeleted     = "booking.appointment.deleted.v1"
)

type appointmentPayload struct {
	AppointmentID  string `json:"appointment_id"`
	OrganizationID string `json:"organization_id"`
	ServiceID      string `json:"service_id"`
	SpaceID        string `json:"space_id"`
	CustomerID     string `json:"customer_id"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	PreviousDate   string `json:"previous_date,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// AppointmentEvent snapshots a into an event of eventType. previous is the
// instant before a reschedule and is zero otherwise.
func AppointmentEvent(eventType string, a domain.Appointment, previous, occurredAt time.Time) (Event, error) {
	p := appointmentPayload{
		AppointmentID:  a.ID,
		OrganizationID: a.OrganizationID,
		ServiceID:      a.ServiceID,
		SpaceID:        a.SpaceID,
		CustomerID:     a.CustomerID,
		Date:           a.Date.UTC().Format(time.RFC3339),
		Status:         string(a.Status),
		OccurredAt:     occurredAt.UTC().Format(time.RFC3339Nano),
	}
	if !previous.IsZero() {
		p.PreviousDate = previous.UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
