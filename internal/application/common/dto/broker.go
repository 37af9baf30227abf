package dto

import (
	"time"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
)

// ClientDTO is a client as shown to operators.
type ClientDTO struct {
	PlatformID  int64     `json:"platform_id"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestDTO is a number request with its owner when known.
type RequestDTO struct {
	SID         string     `json:"sid"`
	Service     string     `json:"service"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecidedBy   *int64     `json:"decided_by,omitempty"`
	Client      *ClientDTO `json:"client,omitempty"`
}

// AllocationDTO is a bound number.
type AllocationDTO struct {
	SID          string     `json:"sid"`
	RequestSID   string     `json:"request_sid,omitempty"`
	Service      string     `json:"service,omitempty"`
	Number       string     `json:"number"`
	ServiceCode  string     `json:"service_code"`
	ActivationID string     `json:"activation_id,omitempty"`
	PollState    string     `json:"poll_state"`
	AssignedAt   time.Time  `json:"assigned_at"`
	TerminalAt   *time.Time `json:"terminal_at,omitempty"`
	CodeCount    int        `json:"code_count"`
}

func FromClient(c *client.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	return &ClientDTO{
		PlatformID:  c.PlatformID(),
		Username:    c.Username(),
		FirstName:   c.FirstName(),
		LastName:    c.LastName(),
		DisplayName: c.DisplayName(),
		Status:      c.Status().String(),
		CreatedAt:   c.CreatedAt(),
	}
}

func FromRequest(r *numberrequest.NumberRequest, owner *client.Client) *RequestDTO {
	return &RequestDTO{
		SID:         r.SID(),
		Service:     r.Service(),
		Status:      r.Status().String(),
		RequestedAt: r.RequestedAt(),
		DecidedAt:   r.DecidedAt(),
		DecidedBy:   r.DecidedBy(),
		Client:      FromClient(owner),
	}
}

func FromAllocation(a *allocation.Allocation) *AllocationDTO {
	return &AllocationDTO{
		SID:          a.SID(),
		Number:       a.Number(),
		ServiceCode:  a.ServiceCode(),
		ActivationID: a.ActivationID(),
		PollState:    a.PollState().String(),
		AssignedAt:   a.AssignedAt(),
		TerminalAt:   a.TerminalAt(),
	}
}

func FromHolding(h *allocation.Holding) *AllocationDTO {
	out := FromAllocation(h.Allocation)
	out.RequestSID = h.RequestSID
	out.Service = h.Service
	out.CodeCount = h.CodeCount
	return out
}
