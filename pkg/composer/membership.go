package composer

import "outletchat/pkg/chatclient"

type AddMemberAction int

const (
	AddMemberHidden AddMemberAction = iota
	AddMemberDirect
	AddMemberStaffManagement
)

func (a AddMemberAction) String() string {
	switch a {
	case AddMemberDirect:
		return "direct"
	case AddMemberStaffManagement:
		return "staff_management"
	default:
		return "hidden"
	}
}

// AddMemberActionFor decides how "add member" is offered. Only owners see it,
// only on groups, and outlet groups send the owner to staff management when
// there is staff left to add.
func AddMemberActionFor(viewerRole string, chat chatclient.Chat, hasAddableStaff bool) AddMemberAction {
	if chat.Type != "group" || viewerRole != RoleOwner {
		return AddMemberHidden
	}
	if chat.OutletID != "" {
		if hasAddableStaff {
			return AddMemberStaffManagement
		}
		return AddMemberHidden
	}
	return AddMemberDirect
}
