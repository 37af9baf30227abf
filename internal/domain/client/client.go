// Package client models a chat user who may be allowed to request numbers.
package client

import (
	"strconv"
	"strings"
	"time"

	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
)

// Client is created pending on first contact and only an operator moves it
// to approved or denied. Clients are never deleted.
type Client struct {
	id         uint
	platformID int64
	username   string
	firstName  string
	lastName   string
	status     vo.DecisionStatus
	createdAt  time.Time
	updatedAt  time.Time
}

func NewClient(platformID int64, username, firstName, lastName string) (*Client, error) {
	if platformID == 0 {
		return nil, ErrInvalidPlatformID
	}
	now := biztime.NowUTC()
	return &Client{
		platformID: platformID,
		username:   username,
		firstName:  firstName,
		lastName:   lastName,
		status:     vo.DecisionPending,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructClient reconstructs from persistence
func ReconstructClient(
	id uint,
	platformID int64,
	username, firstName, lastName string,
	status vo.DecisionStatus,
	createdAt, updatedAt time.Time,
) *Client {
	return &Client{
		id:         id,
		platformID: platformID,
		username:   username,
		firstName:  firstName,
		lastName:   lastName,
		status:     status,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// Getters
func (c *Client) ID() uint                  { return c.id }
func (c *Client) PlatformID() int64         { return c.platformID }
func (c *Client) Username() string          { return c.username }
func (c *Client) FirstName() string         { return c.firstName }
func (c *Client) LastName() string          { return c.lastName }
func (c *Client) Status() vo.DecisionStatus { return c.status }
func (c *Client) CreatedAt() time.Time      { return c.createdAt }
func (c *Client) UpdatedAt() time.Time      { return c.updatedAt }

// SetID sets the client ID (only for persistence layer use)
func (c *Client) SetID(id uint) {
	c.id = id
}

// IsApproved reports whether the client may submit requests.
func (c *Client) IsApproved() bool {
	return c.status.IsApproved()
}

// DisplayName prefers the full name, then @username, then the numeric id.
func (c *Client) DisplayName() string {
	name := strings.TrimSpace(c.firstName + " " + c.lastName)
	if name != "" {
		return name
	}
	if c.username != "" {
		return "@" + c.username
	}
	return "#" + strconv.FormatInt(c.platformID, 10)
}
