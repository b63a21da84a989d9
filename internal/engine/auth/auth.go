package auth

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"auditline/internal/domain"
)

// Resources guarded by the policy.
const (
	ResourceMonitoring          = "monitoring"
	ResourceParty               = "party"
	ResourceCredentials         = "credentials"
	ResourceEliminationReport   = "eliminationReport"
	ResourceEliminationDocument = "eliminationReportDocument"
	ResourceResolution          = "eliminationResolution"
)

// Actions on resources.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionPatch  = "patch"
	ActionPut    = "put"
)

// Principal is the authenticated caller.
type Principal struct {
	ActorID string
	Role    domain.Role
	Source  string
}

// Anonymous is the principal of unauthenticated requests.
var Anonymous = Principal{ActorID: "anonymous", Role: domain.RolePublic, Source: "anonymous"}

// ForbiddenError indicates the role may not perform the action.
type ForbiddenError struct {
	Role     domain.Role
	Resource string
	Action   string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not %s %s", e.Role, e.Action, e.Resource)
}

// MethodNotAllowedError indicates the action is never supported on the resource.
type MethodNotAllowedError struct {
	Resource string
	Action   string
}

func (e MethodNotAllowedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Resource, e.Action)
}

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const rbacPolicy = `p, public, monitoring, view
p, public, eliminationReport, view
p, public, eliminationResolution, view
p, sas, monitoring, create
p, sas, monitoring, patch
p, sas, party, create
p, sas, eliminationResolution, patch
p, broker, credentials, patch
p, broker, eliminationReport, put
p, broker, eliminationReportDocument, create
g, sas, public
g, broker, public
g, reviewer, public`

// unsupported lists actions no role may ever perform.
var unsupported = map[[2]string]bool{
	{ResourceEliminationReport, ActionPatch}: true,
}

// Service evaluates the role policy.
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService builds the policy enforcer.
func NewService() (*Service, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(rbacPolicy))
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	e.EnableLog(false)
	return &Service{enforcer: e}, nil
}

// Authorize returns MethodNotAllowedError for unsupported actions and
// ForbiddenError when the principal's role lacks the permission.
func (s *Service) Authorize(p Principal, resource, action string) error {
	if unsupported[[2]string{resource, action}] {
		return MethodNotAllowedError{Resource: resource, Action: action}
	}
	role := p.Role
	if role == "" {
		role = domain.RolePublic
	}
	ok, err := s.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return fmt.Errorf("enforce policy: %w", err)
	}
	if !ok {
		return ForbiddenError{Role: role, Resource: resource, Action: action}
	}
	return nil
}

// Permissions lists resource/action pairs granted to role, inherited ones included.
func (s *Service) Permissions(role domain.Role) ([][2]string, error) {
	rules, err := s.enforcer.GetImplicitPermissionsForUser(string(role))
	if err != nil {
		return nil, err
	}
	res := make([][2]string, 0, len(rules))
	for _, r := range rules {
		if len(r) < 3 {
			continue
		}
		res = append(res, [2]string{r[1], r[2]})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i][0] != res[j][0] {
			return res[i][0] < res[j][0]
		}
		return res[i][1] < res[j][1]
	})
	return res, nil
}

// HashToken returns the SHA-512 hex digest of an access token.
func HashToken(token string) string {
	sum := sha512.Sum512([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches reports whether token hashes to the stored digest.
func TokenMatches(token, digest string) bool {
	if token == "" || digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(digest)) == 1
}
