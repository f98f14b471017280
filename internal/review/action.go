package review

import (
	"fmt"

	"github.com/kelsos/unit-review/internal/models"
)

// Kind identifies one of the four supported dispositions.
type Kind string

const (
	AcceptAndPay Kind = "accept"
	RejectAndPay Kind = "reject"
	SoftBlock    Kind = "soft_block"
	HardBlock    Kind = "hard_block"
)

// Valid reports whether the kind is one of the supported dispositions.
func (k Kind) Valid() bool {
	switch k {
	case AcceptAndPay, RejectAndPay, SoftBlock, HardBlock:
		return true
	default:
		return false
	}
}

// TerminalStatus returns the server-authoritative status a unit ends up in
// when the action succeeds.
func (k Kind) TerminalStatus() models.UnitStatus {
	switch k {
	case AcceptAndPay:
		return models.StatusAccepted
	case RejectAndPay:
		return models.StatusRejected
	case SoftBlock:
		return models.StatusSoftBlocked
	case HardBlock:
		return models.StatusHardBlocked
	default:
		return ""
	}
}

// Action is a reviewer-initiated disposition targeting one unit. Actions are
// mutually exclusive and terminal.
type Action struct {
	Kind   Kind
	UnitID string
}

// Endpoint returns the review API endpoint that executes the action.
func (a Action) Endpoint() string {
	return fmt.Sprintf("/units/%s/%s", a.UnitID, a.Kind)
}

func (a Action) String() string {
	return fmt.Sprintf("%s(%s)", a.Kind, a.UnitID)
}
