package models

import "encoding/json"

// User represents a client-asserted identity bound to a single live
// connection. Haven does not verify the claim; whatever the client declares
// is relayed as-is. Attributes beyond id and username (avatar, status, ...)
// are preserved verbatim in Extra and round-tripped on the wire.
type User struct {
	ID       string
	Username string
	Extra    map[string]json.RawMessage
}

// MarshalJSON flattens Extra next to the id and username fields.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(u.Extra)+2)
	for k, v := range u.Extra {
		out[k] = v
	}
	id, err := json.Marshal(u.ID)
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(u.Username)
	if err != nil {
		return nil, err
	}
	out["id"] = id
	out["username"] = name
	return json.Marshal(out)
}

// UnmarshalJSON captures unknown keys into Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &u.ID); err != nil {
			return err
		}
		delete(raw, "id")
	}
	if v, ok := raw["username"]; ok {
		if err := json.Unmarshal(v, &u.Username); err != nil {
			return err
		}
		delete(raw, "username")
	}
	if len(raw) > 0 {
		u.Extra = raw
	}
	return nil
}
