package chatclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParticipantRef is a user reference as the server sends it: either a bare
// id string or an embedded user object.
type ParticipantRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

func (p *ParticipantRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ParticipantRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = ParticipantRef{ID: id}
		return nil
	}

	var obj struct {
		ID   string `json:"id"`
		UID  string `json:"uid"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("participant: %w", err)
	}
	id := obj.ID
	if id == "" {
		id = obj.UID
	}
	*p = ParticipantRef{ID: id, Name: obj.Name, Role: obj.Role}
	return nil
}

// ParticipantID is the identity used for every participant comparison.
func ParticipantID(ref ParticipantRef) string {
	return strings.TrimSpace(ref.ID)
}

func SameParticipant(a, b ParticipantRef) bool {
	id := ParticipantID(a)
	return id != "" && id == ParticipantID(b)
}
