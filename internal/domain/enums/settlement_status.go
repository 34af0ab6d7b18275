package enums

type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusConfirmed SettlementStatus = "confirmed"
	SettlementStatusFailed    SettlementStatus = "failed"
)

func (s SettlementStatus) Valid() bool {
	return s == SettlementStatusPending || s == SettlementStatusConfirmed || s == SettlementStatusFailed
}
