package ads

import "errors"

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidAccountID    = errors.New("ad account id must start with 'act_'")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrBudgetTooLow        = errors.New("budget below platform minimum")
	ErrInvalidPageLabel    = errors.New("page label has no trailing (id)")
)
