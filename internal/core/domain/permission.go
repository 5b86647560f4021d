package domain

import (
	"encoding/json"
	"sort"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists every action in matrix column order.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// ResourceDocument is the only resource the console renders capabilities for.
const ResourceDocument = "document"

type PermissionEntry struct {
	Action   Action `json:"action"`
	Resource string `json:"resource"`
}

// PermissionSet is a set of permission entries. Duplicates collapse. It
// serializes as a JSON array in a stable order.
type PermissionSet map[PermissionEntry]struct{}

func NewPermissionSet(entries ...PermissionEntry) PermissionSet {
	set := make(PermissionSet, len(entries))
	for _, e := range entries {
		set[e] = struct{}{}
	}
	return set
}

func (s PermissionSet) Contains(e PermissionEntry) bool {
	_, ok := s[e]
	return ok
}

// Entries returns the set members sorted by resource, then action.
func (s PermissionSet) Entries() []PermissionEntry {
	entries := make([]PermissionEntry, 0, len(s))
	for e := range s {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Resource != entries[j].Resource {
			return entries[i].Resource < entries[j].Resource
		}
		return entries[i].Action < entries[j].Action
	})
	return entries
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var entries []PermissionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*s = NewPermissionSet(entries...)
	return nil
}

// CapabilityTable maps a role to its permission set. Roles whose permissions
// could not be fetched are absent.
type CapabilityTable map[Role]PermissionSet

// HasPermission reports whether role may perform action on documents. Unknown
// roles have no permissions.
func (t CapabilityTable) HasPermission(role Role, action Action) bool {
	set, ok := t[role]
	if !ok {
		return false
	}
	return set.Contains(PermissionEntry{Action: action, Resource: ResourceDocument})
}

func (t CapabilityTable) Clone() CapabilityTable {
	if t == nil {
		return nil
	}
	out := make(CapabilityTable, len(t))
	for role, set := range t {
		cp := make(PermissionSet, len(set))
		for e := range set {
			cp[e] = struct{}{}
		}
		out[role] = cp
	}
	return out
}
