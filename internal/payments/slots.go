package payments

import (
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
)

// Slot is one of the three signature positions on a payment.
type Slot string

const (
	SlotConsumer Slot = "consumer"
	SlotSupplier Slot = "supplier"
	SlotAdmin    Slot = "admin"
)

var slotByRole = map[enums.Role]Slot{
	enums.RoleConsumer: SlotConsumer,
	enums.RoleSupplier: SlotSupplier,
	enums.RoleAdmin:    SlotAdmin,
}

// SlotFor returns the signature slot a role controls. Roles outside the
// quorum have none.
func SlotFor(role enums.Role) (Slot, bool) {
	slot, ok := slotByRole[role]
	return slot, ok
}

func (s Slot) set(p *models.Payment, signed bool) {
	switch s {
	case SlotConsumer:
		p.ConsumerSigned = signed
	case SlotSupplier:
		p.SupplierSigned = signed
	case SlotAdmin:
		p.AdminSigned = signed
	}
}

func (s Slot) String() string {
	return string(s)
}
