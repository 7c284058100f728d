package payments

import (
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
)

// Signatures is the set of parties that currently approve settlement.
type Signatures struct {
	Consumer bool
	Supplier bool
	Admin    bool
}

func signaturesOf(p *models.Payment) Signatures {
	return Signatures{Consumer: p.ConsumerSigned, Supplier: p.SupplierSigned, Admin: p.AdminSigned}
}

// Resolve evaluates the quorum for a pending payment. Admin and consumer
// together refund, and that check runs first, so all three signing also
// refunds. Otherwise the supplier plus either other party releases.
func Resolve(s Signatures) enums.PaymentStatus {
	switch {
	case s.Admin && s.Consumer:
		return enums.PaymentStatusRefunded
	case s.Supplier && (s.Consumer || s.Admin):
		return enums.PaymentStatusReleased
	default:
		return enums.PaymentStatusPending
	}
}
