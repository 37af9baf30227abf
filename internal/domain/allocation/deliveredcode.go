package allocation

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
)

// DeliveredCode is one distinct code observed on an allocation. Rows are
// append-only; only the delivered flag changes.
type DeliveredCode struct {
	id           uint
	allocationID uint
	content      string
	contentHash  string
	receivedAt   time.Time
	delivered    bool
}

func NewDeliveredCode(allocationID uint, content string) *DeliveredCode {
	return &DeliveredCode{
		allocationID: allocationID,
		content:      content,
		contentHash:  HashContent(content),
		receivedAt:   biztime.NowUTC(),
	}
}

// ReconstructDeliveredCode reconstructs from persistence
func ReconstructDeliveredCode(id, allocationID uint, content, contentHash string, receivedAt time.Time, delivered bool) *DeliveredCode {
	return &DeliveredCode{
		id:           id,
		allocationID: allocationID,
		content:      content,
		contentHash:  contentHash,
		receivedAt:   receivedAt,
		delivered:    delivered,
	}
}

// HashContent is the dedupe key of a code within one allocation.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Getters
func (d *DeliveredCode) ID() uint              { return d.id }
func (d *DeliveredCode) AllocationID() uint    { return d.allocationID }
func (d *DeliveredCode) Content() string       { return d.content }
func (d *DeliveredCode) ContentHash() string   { return d.contentHash }
func (d *DeliveredCode) ReceivedAt() time.Time { return d.receivedAt }
func (d *DeliveredCode) Delivered() bool       { return d.delivered }

// SetID sets the code ID (only for persistence layer use)
func (d *DeliveredCode) SetID(id uint) {
	d.id = id
}

func (d *DeliveredCode) MarkDelivered() {
	d.delivered = true
}
