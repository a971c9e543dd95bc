package composer

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"

	maxGroupName = 80
)

var validate = validator.New()

type Member struct {
	ID   string
	Name string
	Role string
}

// FieldError is an input problem tied to one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Selection tracks which roster members are picked for a new chat. The
// creator is never part of the roster.
type Selection struct {
	roster   []Member
	selected map[string]bool
}

func NewSelection(roster []Member, selfID string) *Selection {
	members := make([]Member, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, m := range roster {
		if m.ID == "" || m.ID == selfID || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		members = append(members, m)
	}
	return &Selection{
		roster:   members,
		selected: make(map[string]bool),
	}
}

// Toggle flips one member and reports the new state. Unknown ids are ignored.
func (s *Selection) Toggle(id string) bool {
	if !s.inRoster(id) {
		return false
	}
	if s.selected[id] {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = true
	return true
}

// ToggleRole deselects every member of role when all of them are selected
// and otherwise selects the ones still missing.
func (s *Selection) ToggleRole(role string) {
	members := s.withRole(role)
	if len(members) == 0 {
		return
	}

	all := true
	for _, m := range members {
		if !s.selected[m.ID] {
			all = false
			break
		}
	}

	for _, m := range members {
		if all {
			delete(s.selected, m.ID)
		} else {
			s.selected[m.ID] = true
		}
	}
}

// RoleSelected reports whether every member of role is selected.
func (s *Selection) RoleSelected(role string) bool {
	members := s.withRole(role)
	for _, m := range members {
		if !s.selected[m.ID] {
			return false
		}
	}
	return len(members) > 0
}

func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

// Selected returns the picked ids in roster order.
func (s *Selection) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	for _, m := range s.roster {
		if s.selected[m.ID] {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (s *Selection) Clear() {
	s.selected = make(map[string]bool)
}

func (s *Selection) ValidateDirect() error {
	switch n := len(s.selected); {
	case n == 0:
		return FieldError{Field: "members", Message: "Select one person to chat with"}
	case n > 1:
		return FieldError{Field: "members", Message: "A direct chat has exactly one other person"}
	}
	return nil
}

func (s *Selection) ValidateGroup(name string) error {
	var errs FieldErrors

	name = strings.TrimSpace(name)
	if err := validate.Var(name, "required"); err != nil {
		errs = append(errs, FieldError{Field: "name", Message: "Group name is required"})
	} else if err := validate.Var(name, "max="+strconv.Itoa(maxGroupName)); err != nil {
		errs = append(errs, FieldError{Field: "name", Message: "Group name is too long"})
	}
	if len(s.selected) == 0 {
		errs = append(errs, FieldError{Field: "members", Message: "Select at least one member"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Selection) inRoster(id string) bool {
	for _, m := range s.roster {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (s *Selection) withRole(role string) []Member {
	var members []Member
	for _, m := range s.roster {
		if m.Role == role {
			members = append(members, m)
		}
	}
	return members
}
