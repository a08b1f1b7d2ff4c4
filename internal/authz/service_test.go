package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chogo-next/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceGrantedAction(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.Grant(constants.RoleSeller, constants.ActionConfirm); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	ok, err := svc.Enforce(constants.RoleSeller, constants.ActionConfirm)
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("granted action should be allowed")
	}

	ok, err = svc.Enforce(constants.RoleSeller, constants.ActionDeliver)
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("ungranted action should be denied")
	}
}

func TestEnforceWildcardGrant(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.Grant(constants.RoleSystem, "*"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	for _, action := range []string{constants.ActionConfirm, constants.ActionRefund, constants.ActionDeliver} {
		ok, err := svc.Enforce(constants.RoleSystem, action)
		if err != nil {
			t.Fatalf("enforce %s failed: %v", action, err)
		}
		if !ok {
			t.Fatalf("wildcard grant should allow %s", action)
		}
	}
}

func TestEnforceNormalizesInput(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.Grant(" Seller ", " Pack "); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	ok, err := svc.Enforce("seller", "pack")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("grant should be normalized to lowercase trimmed form")
	}
}

func TestRevokeGrant(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.Grant(constants.RoleShipper, constants.ActionPickup); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.Revoke(constants.RoleShipper, constants.ActionPickup); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	ok, err := svc.Enforce(constants.RoleShipper, constants.ActionPickup)
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("revoked action should be denied")
	}
}

func TestGrantRequiresRoleAndAction(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.Grant("", constants.ActionConfirm); err == nil {
		t.Fatalf("empty role should be rejected")
	}
	if err := svc.Grant(constants.RoleSeller, " "); err == nil {
		t.Fatalf("blank action should be rejected")
	}
}

func TestBootstrapSeedsBuiltinGrants(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := Bootstrap(svc); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	cases := []struct {
		role   string
		action string
		want   bool
	}{
		{constants.RoleSeller, constants.ActionConfirm, true},
		{constants.RoleSeller, constants.ActionDeliver, false},
		{constants.RoleShipper, constants.ActionDeliver, true},
		{constants.RoleCustomer, constants.ActionConfirmReceipt, true},
		{constants.RoleCustomer, constants.ActionRefund, false},
		{constants.RoleSystem, constants.ActionRefund, true},
	}
	for _, tc := range cases {
		ok, err := svc.Enforce(tc.role, tc.action)
		if err != nil {
			t.Fatalf("enforce %s/%s failed: %v", tc.role, tc.action, err)
		}
		if ok != tc.want {
			t.Fatalf("enforce %s/%s = %v, want %v", tc.role, tc.action, ok, tc.want)
		}
	}

	// reseeding must not error or duplicate
	if err := Bootstrap(svc); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	policies, err := svc.RolePolicies(constants.RoleSeller)
	if err != nil {
		t.Fatalf("role policies failed: %v", err)
	}
	if len(policies) != 5 {
		t.Fatalf("seller should hold 5 grants, got %d", len(policies))
	}
}
