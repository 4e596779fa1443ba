package backend

import "time"

// Call is one phone call record as reported by the upstream call-center API.
//
// Records are owned upstream and immutable on our side except for two fields:
// IsArchived is toggled via ToggleArchive and Notes grow via AddNote. Every
// copy held here is a cached, possibly stale snapshot of one fetched page.
type Call struct {
	ID        string    `json:"id"`
	CallType  CallType  `json:"call_type"`
	Direction Direction `json:"direction"`

	// DurationSeconds is the call duration in seconds, never negative.
	DurationSeconds int `json:"duration"`

	From string `json:"from"`
	To   string `json:"to"`
	Via  string `json:"via"`

	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`

	// Notes are append-only; the upstream never removes one.
	Notes []Note `json:"notes,omitempty"`
}

type CallType string

const (
	CallTypeVoicemail CallType = "voicemail"
	CallTypeAnswered  CallType = "answered"
	CallTypeMissed    CallType = "missed"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type Note struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CallPage is one paginated slice of the upstream call list.
type CallPage struct {
	Nodes       []Call `json:"nodes"`
	TotalCount  int    `json:"totalCount"`
	HasNextPage bool   `json:"hasNextPage"`
}

// Session is the token pair issued by the upstream auth endpoints. Both
// tokens are opaque bearer credentials; ExpiresIn counts seconds until the
// access token goes stale.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
