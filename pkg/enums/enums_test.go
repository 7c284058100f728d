package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleIgnoresCase(t *testing.T) {
	role, err := ParseRole("  Supplier ")
	require.NoError(t, err)
	assert.Equal(t, RoleSupplier, role)

	_, err = ParseRole("auditor")
	assert.Error(t, err)
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusReleased.IsTerminal())
	assert.True(t, PaymentStatusRefunded.IsTerminal())
}

func TestParseOrderStatusIsExact(t *testing.T) {
	got, err := ParseOrderStatus("DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDelivered, got)

	_, err = ParseOrderStatus("delivered")
	assert.Error(t, err)
	assert.False(t, OrderStatus("SHIPPED").IsValid())
}
