// Package numberrequest models a client's request for a number on one service.
package numberrequest

import (
	"fmt"
	"time"

	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/id"
)

// NumberRequest is decided at most once. After approval or denial it is never reopened.
type NumberRequest struct {
	id          uint
	sid         string
	clientID    uint
	service     string
	status      vo.DecisionStatus
	requestedAt time.Time
	decidedAt   *time.Time
	decidedBy   *int64
}

// NewNumberRequest creates a pending request. The service must already be
// validated against the catalog.
func NewNumberRequest(clientID uint, service string) (*NumberRequest, error) {
	if clientID == 0 {
		return nil, ErrInvalidClient
	}
	if service == "" {
		return nil, ErrInvalidService
	}

	sid, err := id.NewNumberRequestID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	return &NumberRequest{
		sid:         sid,
		clientID:    clientID,
		service:     service,
		status:      vo.DecisionPending,
		requestedAt: biztime.NowUTC(),
	}, nil
}

// ReconstructNumberRequest reconstructs from persistence
func ReconstructNumberRequest(
	id uint,
	sid string,
	clientID uint,
	service string,
	status vo.DecisionStatus,
	requestedAt time.Time,
	decidedAt *time.Time,
	decidedBy *int64,
) *NumberRequest {
	return &NumberRequest{
		id:          id,
		sid:         sid,
		clientID:    clientID,
		service:     service,
		status:      status,
		requestedAt: requestedAt,
		decidedAt:   decidedAt,
		decidedBy:   decidedBy,
	}
}

// Getters
func (r *NumberRequest) ID() uint                  { return r.id }
func (r *NumberRequest) SID() string               { return r.sid }
func (r *NumberRequest) ClientID() uint            { return r.clientID }
func (r *NumberRequest) Service() string           { return r.service }
func (r *NumberRequest) Status() vo.DecisionStatus { return r.status }
func (r *NumberRequest) RequestedAt() time.Time    { return r.requestedAt }
func (r *NumberRequest) DecidedAt() *time.Time     { return r.decidedAt }
func (r *NumberRequest) DecidedBy() *int64         { return r.decidedBy }

// SetID sets the request ID (only for persistence layer use)
func (r *NumberRequest) SetID(id uint) {
	r.id = id
}

// ApplyDecision mirrors a decision already committed by the repository CAS.
func (r *NumberRequest) ApplyDecision(status vo.DecisionStatus, actor int64, at time.Time) {
	r.status = status
	r.decidedAt = &at
	r.decidedBy = &actor
}
