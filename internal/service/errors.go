package service

import (
	"errors"
	"procurement-engine/internal/entity"
)

var (
	ErrRfqNotFound        = errors.New("rfq not found")
	ErrInvitationNotFound = entity.ErrInvitationNotFound
	ErrSelectionNotFound  = errors.New("rfq has no current selection")
	ErrOrderNotFound      = errors.New("purchase order not found")
)
