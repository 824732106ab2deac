package wallet

import (
	"time"

	"mzigo/shipment"
)

// PlatformAccountID is the user id that accumulates commission.
const PlatformAccountID = "platform"

// Wallet tracks a user's balances in MWK. One wallet per user, created
// lazily on first access. The sum of the three balances never goes negative;
// every mutation happens inside an enforcement-engine-wrapped action.
type Wallet struct {
	UserID           string
	AvailableBalance int64
	PendingBalance   int64
	EscrowBalance    int64
	TotalEarned      int64
	TotalWithdrawn   int64
	PaymentMethods   []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EscrowStatus is one-directional: held→{released|refunded|disputed},
// disputed→{released|refunded}.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "held"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
	EscrowDisputed EscrowStatus = "disputed"
)

// EscrowHold records funds set aside for a shipment pending release.
type EscrowHold struct {
	ID               string
	ShipmentID       string
	ShipperID        string
	TransporterID    string
	GrossAmount      int64
	PlatformFee      int64
	NetAmount        int64
	PaymentMethod    shipment.PaymentMethod
	Status           EscrowStatus
	ReleaseCondition string
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}

// TxType classifies ledger entries.
type TxType string

const (
	TxPayment       TxType = "payment"
	TxPayout        TxType = "payout"
	TxRefund        TxType = "refund"
	TxEscrowHold    TxType = "escrow_hold"
	TxEscrowRelease TxType = "escrow_release"
	TxCommission    TxType = "commission"
	TxTip           TxType = "tip"
)

// TxStatus is the settlement state of a ledger entry. Entries never mutate
// after completion except this field during async settlement.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

// TxMetadata carries the gross/net/commission breakdown alongside an entry.
type TxMetadata struct {
	ShipmentID string `json:"shipment_id,omitempty"`
	Gross      int64  `json:"gross,omitempty"`
	Net        int64  `json:"net,omitempty"`
	Commission int64  `json:"commission,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID        string
	UserID    string
	Type      TxType
	Amount    int64
	Status    TxStatus
	Metadata  TxMetadata
	CreatedAt time.Time
}
