package chatclient

import (
	"sort"
	"time"
)

// SeenMarkers maps message id to the participants whose read-mark lands on
// it. Each participant other than self marks at most one message: the newest
// confirmed message self sent at or before their read-mark.
func SeenMarkers(messages []Message, selfID string, lastReadBy map[string]time.Time) map[string][]string {
	markers := make(map[string][]string)

	for participant, readAt := range lastReadBy {
		if participant == selfID || readAt.IsZero() {
			continue
		}

		best := -1
		for i, m := range messages {
			if m.ID == "" || ParticipantID(m.Sender) != selfID || m.CreatedAt.After(readAt) {
				continue
			}
			if best < 0 || !m.CreatedAt.Before(messages[best].CreatedAt) {
				best = i
			}
		}
		if best >= 0 {
			id := messages[best].ID
			markers[id] = append(markers[id], participant)
		}
	}

	for _, readers := range markers {
		sort.Strings(readers)
	}
	return markers
}
