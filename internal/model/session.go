package model

// Session is a bearer token plus display name. Both are present or neither is.
type Session struct {
	Token string `json:"-"`
	Name  string `json:"name,omitempty"`
}

// IsAuthenticated reports whether both token and name are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.Name != ""
}
