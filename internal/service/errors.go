package service

import (
	"fmt"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

var (
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty, nothing to checkout", domain.ErrValidation)
	ErrUnknownPromotion   = fmt.Errorf("%w: promotion code is not valid", domain.ErrValidation)
	ErrCheckoutInProgress = fmt.Errorf("%w: a checkout with this idempotency key is in progress", domain.ErrConflict)
	ErrNoPendingDesign    = fmt.Errorf("%w: No design pending approval", domain.ErrConflict)
	ErrNoAdminDesign      = fmt.Errorf("%w: order has no admin design to restore", domain.ErrConflict)
	ErrNothingToUpdate    = fmt.Errorf("%w: nothing to update", domain.ErrValidation)
)
