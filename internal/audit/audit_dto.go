package audit

import "time"

type EntryResponse struct {
	ID         string    `json:"id"`
	LeaveID    string    `json:"leave_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorName  string    `json:"actor_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

func MapToListResponse(entries []Entry) []EntryResponse {
	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = EntryResponse{
			ID:         e.ID.String(),
			LeaveID:    e.LeaveID.String(),
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			OccurredAt: e.OccurredAt,
		}
	}
	return resp
}
