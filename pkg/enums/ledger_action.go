package enums

// LedgerAction labels an audit ledger record.
type LedgerAction string

const (
	LedgerActionCreate  LedgerAction = "create"
	LedgerActionUpdate  LedgerAction = "update"
	LedgerActionUnknown LedgerAction = "unknown"
)

// String implements fmt.Stringer.
func (a LedgerAction) String() string {
	return string(a)
}
