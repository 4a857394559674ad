package transfer

import "errors"

// Terminal transfer failures. The HTTP handler is the single place these are
// turned into response messages; no other layer formats them.
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrRecipientRequired     = errors.New("destination wallet or phone number required")
	ErrSameWallet            = errors.New("source and destination wallets must differ")
	ErrUserNotFound          = errors.New("user not found")
	ErrUnsupportedCurrency   = errors.New("unsupported currency")
	ErrRecipientNotFound     = errors.New("recipient phone number not found")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrWalletBusy            = errors.New("wallet is busy")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrComplianceDenied      = errors.New("transfer denied by policy")
	ErrComplianceUnavailable = errors.New("policy service unavailable")
	ErrInternal              = errors.New("internal error")
)

// DeniedError carries the gate's stated reason for a denial. It matches
// ErrComplianceDenied under errors.Is and renders as the bare reason, which
// is surfaced to the caller verbatim.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return ErrComplianceDenied.Error()
	}
	return e.Reason
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrComplianceDenied
}
