package models

// UserData is the opaque profile a client attaches to a find-partner request.
// Only the identity is ever read by the relay, and only to tell the partner who it is talking to.
type UserData struct {
	SupabaseID *string `json:"supabaseId,omitempty"`
	IsGuest    bool    `json:"isGuest"`
	Country    string  `json:"country,omitempty"`
	Gender     string  `json:"gender,omitempty"`
}

// Identity returns the public identity token or nil when the user did not supply one
func (u *UserData) Identity() *string {
	if u == nil || u.SupabaseID == nil || *u.SupabaseID == "" {
		return nil
	}
	id := *u.SupabaseID
	return &id
}

// WithIdentity fills in a verified identity when the client did not send one itself
func (u UserData) WithIdentity(identity string) UserData {
	if identity == "" || u.Identity() != nil {
		return u
	}
	u.SupabaseID = &identity
	return u
}

// Status is a read-only snapshot of the relay state
type Status struct {
	Online      int `json:"onlineUsers"`
	Waiting     int `json:"waitingInQueue"`
	ActivePairs int `json:"activePairs"`
}
