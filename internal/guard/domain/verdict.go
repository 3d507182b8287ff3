package domain

import (
	"fmt"
	"strings"
)

// BlockReason identifies which rule layer produced a block.
//
// The set is closed so host UIs can map reason → icon/copy exhaustively.
type BlockReason uint8

const (
	// ReasonNone means the navigation was allowed.
	ReasonNone BlockReason = iota
	// ReasonDomain means the host matched a blocked domain.
	ReasonDomain
	// ReasonKeyword means the URL contained a blocked keyword.
	ReasonKeyword
	// ReasonPrayer means a prayer pause window is active.
	ReasonPrayer
	// ReasonSchedule means the current time falls outside every allowed window.
	ReasonSchedule
	// ReasonWhitelist means strict mode is on and the host is not whitelisted.
	ReasonWhitelist
)

// String returns a stable string representation of the reason.
func (r BlockReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonDomain:
		return "domain"
	case ReasonKeyword:
		return "keyword"
	case ReasonPrayer:
		return "prayer"
	case ReasonSchedule:
		return "schedule"
	case ReasonWhitelist:
		return "whitelist"
	default:
		return fmt.Sprintf("BlockReason(%d)", r)
	}
}

// ParseBlockReason converts a string into a BlockReason.
// Accepts the values produced by String (case-insensitive).
func ParseBlockReason(s string) (BlockReason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ReasonNone, nil
	case "domain":
		return ReasonDomain, nil
	case "keyword":
		return ReasonKeyword, nil
	case "prayer":
		return ReasonPrayer, nil
	case "schedule":
		return ReasonSchedule, nil
	case "whitelist":
		return ReasonWhitelist, nil
	default:
		return 0, fmt.Errorf("unsupported BlockReason: %q", s)
	}
}

// BlockVerdict is the atomic outcome of one navigation decision.
// Pure value type, no external dependencies.
type BlockVerdict struct {
	Blocked   bool        // true if the navigation must be refused
	Reason    BlockReason // ReasonNone when allowed
	BlockedBy string      // literal matched domain/keyword/prayer name/rule id
}

// IsBlocked is a convenience accessor.
func (v BlockVerdict) IsBlocked() bool { return v.Blocked }

// Allowed returns a not-blocked verdict.
func Allowed() BlockVerdict { return BlockVerdict{} }

// Block constructs a blocked verdict for the given reason and matched value.
func Block(reason BlockReason, blockedBy string) BlockVerdict {
	return BlockVerdict{Blocked: true, Reason: reason, BlockedBy: blockedBy}
}
