package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DesignTag classifies a saved design.
type DesignTag string

const (
	DesignTagNone           DesignTag = "none"
	DesignTagAdminDesign    DesignTag = "admin_design"
	DesignTagCustomerUpload DesignTag = "customer_upload"
	DesignTagFlagged        DesignTag = "flagged"
	DesignTagApproved       DesignTag = "approved"
)

type Design struct {
	ID         uuid.UUID       `json:"id"`
	UserID     string          `json:"userId"`
	Name       string          `json:"name"`
	Tag        DesignTag       `json:"tag"`
	Canvas     json.RawMessage `json:"canvas"`
	PreviewURL string          `json:"previewUrl,omitempty"`
	OrderID    *uuid.UUID      `json:"orderId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Retag applies a classification change. A flag sticks until it is cleared
// with ClearFlag or superseded by approval. An approved design attached to
// another order stays approved.
func (d *Design) Retag(next DesignTag) error {
	switch next {
	case DesignTagApproved, DesignTagFlagged:
		d.Tag = next
		return nil
	case DesignTagAdminDesign, DesignTagCustomerUpload, DesignTagNone:
		if d.Tag == DesignTagFlagged {
			return fmt.Errorf("%w: design %s is flagged", ErrConflict, d.ID)
		}
		if d.Tag == DesignTagApproved && next != DesignTagNone {
			return nil
		}
		if d.Tag == DesignTagApproved {
			return fmt.Errorf("%w: design %s is already approved", ErrConflict, d.ID)
		}
		d.Tag = next
		return nil
	}
	return fmt.Errorf("%w: unknown design tag %q", ErrValidation, next)
}

// ClearFlag lifts a flag, returning the design to the given source tag.
func (d *Design) ClearFlag(source DesignTag) {
	if d.Tag == DesignTagFlagged {
		d.Tag = source
	}
}
