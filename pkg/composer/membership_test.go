package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outletchat/pkg/chatclient"
)

func TestAddMemberActionFor(t *testing.T) {
	group := chatclient.Chat{ID: "g1", Type: "group"}
	outlet := chatclient.Chat{ID: "outlet_1", Type: "group", OutletID: "o1", IsDefault: true}
	direct := chatclient.Chat{ID: "d1", Type: "direct"}

	tests := []struct {
		name     string
		role     string
		chat     chatclient.Chat
		addable  bool
		expected AddMemberAction
	}{
		{"owner on plain group", RoleOwner, group, false, AddMemberDirect},
		{"manager on plain group", RoleManager, group, true, AddMemberHidden},
		{"owner on outlet group with staff", RoleOwner, outlet, true, AddMemberStaffManagement},
		{"owner on outlet group without staff", RoleOwner, outlet, false, AddMemberHidden},
		{"owner on direct chat", RoleOwner, direct, true, AddMemberHidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMemberActionFor(tt.role, tt.chat, tt.addable))
		})
	}
	assert.Equal(t, "staff_management", AddMemberStaffManagement.String())
}
