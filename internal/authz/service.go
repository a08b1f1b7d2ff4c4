package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const casbinTableName = "casbin_rule"

const roleActionModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (r.act == p.act || p.act == "*")
`

// Policy one role -> action grant
type Policy struct {
	Role   string `json:"role"`
	Action string `json:"action"`
}

// Service role -> fulfillment-action authorization. The transition table
// still checks the edge; this layer answers whether the role may attempt
// the action at all, so grants can change without a deploy.
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService creates the authorization service backed by the main database
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(roleActionModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforce reports whether the role may perform the action
func (s *Service) Enforce(role, action string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(normalize(role), normalize(action))
}

// Grant adds a role -> action policy
func (s *Service) Grant(role, action string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	role, action = normalize(role), normalize(action)
	if role == "" || action == "" {
		return fmt.Errorf("role and action are required")
	}
	if _, err := s.enforcer.AddPolicy(role, action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// Revoke removes a role -> action policy
func (s *Service) Revoke(role, action string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	if _, err := s.enforcer.RemovePolicy(normalize(role), normalize(action)); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// RolePolicies lists the actions granted to a role, sorted
func (s *Service) RolePolicies(role string) ([]Policy, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalize(role))
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 2 {
			continue
		}
		policies = append(policies, Policy{Role: rule[0], Action: rule[1]})
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].Action < policies[j].Action })
	return policies, nil
}

// ReloadPolicy reloads policies from storage
func (s *Service) ReloadPolicy() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.LoadPolicy()
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
