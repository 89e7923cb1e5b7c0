package models

import "encoding/json"

// Group is a shared-expense collective as listed by GET /my-groups.
type Group struct {
	// ID identifies the group in every /{groupId}/... path.
	ID string `json:"id"`

	// Name is the display name (e.g. "Flatmates", "Goa Trip").
	Name string `json:"name"`

	CreatedAt Timestamp `json:"createdAt"`

	// Members and Expenses are embedded summaries; the detail view always
	// fetches them fresh.
	Members  []Member  `json:"members"`
	Expenses []Expense `json:"expenses"`
}

// UnmarshalJSON accepts numeric identifiers, and "groupId" when "id" is
// absent. Some backend builds serialise the identifier under that name.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var aux struct {
		plain
		ID      json.RawMessage `json:"id"`
		GroupID json.RawMessage `json:"groupId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = Group(aux.plain)
	g.ID = rawID(aux.ID)
	if g.ID == "" {
		g.ID = rawID(aux.GroupID)
	}
	return nil
}

// Member is a group participant.
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// rawID renders a JSON string or number identifier as a string.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
