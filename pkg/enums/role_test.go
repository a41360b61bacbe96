package enums

import "testing"

func TestRolePrecedence(t *testing.T) {
	ordered := []Role{RoleOwner, RolePartner, RoleAdmin, RoleSubscriber, RoleUser, RoleGuest}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i-1].Outranks(ordered[i]) {
			t.Fatalf("%s should outrank %s", ordered[i-1], ordered[i])
		}
		if ordered[i].Outranks(ordered[i-1]) && ordered[i] != ordered[i-1] {
			t.Fatalf("%s should not outrank %s", ordered[i], ordered[i-1])
		}
	}
	if Role("banana").Outranks(RoleGuest) {
		t.Fatalf("unknown role must rank below guest")
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("subscriber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleSubscriber {
		t.Fatalf("expected subscriber, got %s", role)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatalf("delivered and cancelled must be terminal")
	}
	if OrderStatusShipped.IsTerminal() {
		t.Fatalf("shipped must not be terminal")
	}
}
