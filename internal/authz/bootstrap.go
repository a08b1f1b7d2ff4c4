package authz

import (
	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/logger"
)

// builtinGrants the default role -> action matrix. Seeded once; operators
// can grant or revoke on top of it at runtime.
var builtinGrants = []Policy{
	{Role: constants.RoleSeller, Action: constants.ActionConfirm},
	{Role: constants.RoleSeller, Action: constants.ActionPack},
	{Role: constants.RoleSeller, Action: constants.ActionApproveReturn},
	{Role: constants.RoleSeller, Action: constants.ActionRejectReturn},
	{Role: constants.RoleSeller, Action: constants.ActionRefund},
	{Role: constants.RoleShipper, Action: constants.ActionPickup},
	{Role: constants.RoleShipper, Action: constants.ActionDeliver},
	{Role: constants.RoleShipper, Action: constants.ActionMarkReturned},
	{Role: constants.RoleCustomer, Action: constants.ActionConfirmReceipt},
	{Role: constants.RoleCustomer, Action: constants.ActionRequestReturn},
	{Role: constants.RoleSystem, Action: "*"},
}

// Bootstrap seeds the builtin grants. AddPolicy is a no-op for rows that
// already exist, so reseeding on every start is safe.
func Bootstrap(svc *Service) error {
	if svc == nil {
		return nil
	}
	for _, grant := range builtinGrants {
		if err := svc.Grant(grant.Role, grant.Action); err != nil {
			return err
		}
	}
	logger.Infow("authz_grants_seeded", "count", len(builtinGrants))
	return nil
}
