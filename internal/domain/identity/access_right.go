package identity

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action codes
const (
	ActionView     = "view"
	ActionAdd      = "add"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
	ActionPrint    = "print"
	ActionExport   = "export"
	ActionPost     = "post"
	ActionVoid     = "void"
	ActionAdjust   = "adjust"
	ActionTransfer = "transfer"
	ActionManage   = "manage"
)

// Module codes
const (
	ModuleSales      = "SALES"
	ModuleCustomer   = "CUSTOMER"
	ModuleReceivable = "RECEIVABLE"
	ModuleFinance    = "FINANCE"
	ModuleSecurity   = "SECURITY"
)

// DefaultModules lists the modules seeded for every new group
func DefaultModules() []string {
	return []string{ModuleSales, ModuleCustomer, ModuleReceivable, ModuleFinance, ModuleSecurity}
}

// DerivedActions are granted implicitly by another action. A view grant
// also allows printing and exporting.
var DerivedActions = map[string][]string{
	ActionView: {ActionPrint, ActionExport},
}

var (
	moduleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,49}$`)
	actionPattern     = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)
	upper             = cases.Upper(language.Und)
)

// actionAliases maps legacy action names onto the flag actions
var actionAliases = map[string]string{
	"create": ActionAdd,
	"canadd": ActionAdd,
	"update": ActionEdit,
	"read":   ActionView,
}

// NormalizeModule upper-cases and trims a module code
func NormalizeModule(module string) string {
	return upper.String(strings.TrimSpace(module))
}

// NormalizeAction lower-cases an action and resolves legacy aliases
func NormalizeAction(action string) string {
	a := strings.ToLower(strings.TrimSpace(action))
	if alias, ok := actionAliases[a]; ok {
		return alias
	}
	return a
}

// AccessRight holds a group's capability flags for one module
type AccessRight struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	GroupID       uuid.UUID
	ModuleCode    string
	CanView       bool
	CanAdd        bool
	CanEdit       bool
	CanDelete     bool
	CustomActions map[string]bool
	CreatedAt     time.Time
}

// NewAccessRight creates a validated access right
func NewAccessRight(tenantID, groupID uuid.UUID, module string, view, add, edit, del bool, custom map[string]bool) (*AccessRight, error) {
	if groupID == uuid.Nil {
		return nil, shared.NewValidationError("group is required")
	}
	module = NormalizeModule(module)
	if !moduleCodePattern.MatchString(module) {
		return nil, shared.NewValidationError("invalid module code %q", module)
	}
	actions := make(map[string]bool, len(custom))
	for name, allowed := range custom {
		a := NormalizeAction(name)
		if !actionPattern.MatchString(a) {
			return nil, shared.NewValidationError("invalid action %q", name)
		}
		actions[a] = allowed
	}
	return &AccessRight{
		ID:            uuid.New(),
		TenantID:      tenantID,
		GroupID:       groupID,
		ModuleCode:    module,
		CanView:       view,
		CanAdd:        add,
		CanEdit:       edit,
		CanDelete:     del,
		CustomActions: actions,
		CreatedAt:     time.Now(),
	}, nil
}

// GrantedActions lists the explicitly granted actions, without derivations
func (r *AccessRight) GrantedActions() []string {
	var out []string
	if r.CanView {
		out = append(out, ActionView)
	}
	if r.CanAdd {
		out = append(out, ActionAdd)
	}
	if r.CanEdit {
		out = append(out, ActionEdit)
	}
	if r.CanDelete {
		out = append(out, ActionDelete)
	}
	for name, allowed := range r.CustomActions {
		if allowed {
			out = append(out, name)
		}
	}
	return out
}

// PermissionSet is an immutable view of a group's allowed actions
type PermissionSet struct {
	groupID uuid.UUID
	modules map[string]map[string]struct{}
	builtAt time.Time
}

// BuildPermissionSet flattens access rights and applies derivation rules
func BuildPermissionSet(groupID uuid.UUID, rights []AccessRight, rules map[string][]string) *PermissionSet {
	ps := &PermissionSet{
		groupID: groupID,
		modules: make(map[string]map[string]struct{}, len(rights)),
		builtAt: time.Now(),
	}
	for _, r := range rights {
		actions, ok := ps.modules[r.ModuleCode]
		if !ok {
			actions = make(map[string]struct{})
			ps.modules[r.ModuleCode] = actions
		}
		for _, a := range r.GrantedActions() {
			actions[a] = struct{}{}
			for _, derived := range rules[a] {
				actions[derived] = struct{}{}
			}
		}
	}
	return ps
}

// Allows reports whether the action is allowed on the module
func (ps *PermissionSet) Allows(module, action string) bool {
	if ps == nil {
		return false
	}
	actions, ok := ps.modules[NormalizeModule(module)]
	if !ok {
		return false
	}
	_, ok = actions[NormalizeAction(action)]
	return ok
}

// Actions returns the sorted allowed actions of a module
func (ps *PermissionSet) Actions(module string) []string {
	actions := ps.modules[NormalizeModule(module)]
	out := make([]string, 0, len(actions))
	for a := range actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// GroupID returns the group the set was built for
func (ps *PermissionSet) GroupID() uuid.UUID { return ps.groupID }

// BuiltAt returns when the set was computed
func (ps *PermissionSet) BuiltAt() time.Time { return ps.builtAt }
