package auth

import "github.com/angelmondragon/trustchain-backend/pkg/enums"

// Action names an operation guarded by role.
type Action string

const (
	ActionSubmitProduct    Action = "product:submit"
	ActionDeleteOwnProduct Action = "product:delete_own"
	ActionDeleteAnyProduct Action = "product:delete_any"
	ActionReviewFlagged    Action = "product:review_flagged"
	ActionViewPenalties    Action = "supplier:view_penalties"
	ActionCreateOrder      Action = "order:create"
	ActionUpdateOrder      Action = "order:update"
	ActionViewAnyOrder     Action = "order:view_any"
	ActionListDelivered    Action = "order:list_delivered"
	ActionViewLedger       Action = "order:view_ledger"
	ActionCreatePayment    Action = "payment:create"
	ActionSignPayment      Action = "payment:sign"
	ActionViewAnyPayment   Action = "payment:view_any"
)

var permissions = map[enums.Role]map[Action]bool{
	enums.RoleSupplier: {
		ActionSubmitProduct:    true,
		ActionDeleteOwnProduct: true,
		ActionUpdateOrder:      true,
		ActionViewAnyOrder:     true,
		ActionViewLedger:       true,
		ActionSignPayment:      true,
	},
	enums.RoleManufacturer: {
		ActionViewAnyOrder: true,
		ActionViewLedger:   true,
	},
	enums.RoleLogistics: {
		ActionUpdateOrder:  true,
		ActionViewAnyOrder: true,
		ActionViewLedger:   true,
	},
	enums.RoleConsumer: {
		ActionCreateOrder:   true,
		ActionViewLedger:    true,
		ActionCreatePayment: true,
		ActionSignPayment:   true,
	},
	enums.RoleAdmin: {
		ActionDeleteAnyProduct: true,
		ActionReviewFlagged:    true,
		ActionViewPenalties:    true,
		ActionUpdateOrder:      true,
		ActionViewAnyOrder:     true,
		ActionListDelivered:    true,
		ActionViewLedger:       true,
		ActionSignPayment:      true,
		ActionViewAnyPayment:   true,
	},
}

// Can reports whether role may perform action.
func Can(role enums.Role, action Action) bool {
	return permissions[role][action]
}

// CanAny reports whether role may perform at least one of actions.
func CanAny(role enums.Role, actions ...Action) bool {
	for _, a := range actions {
		if Can(role, a) {
			return true
		}
	}
	return false
}
