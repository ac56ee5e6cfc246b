package indieauth

import (
	"bytes"
	"encoding/json"
)

// Token is the response from a successful authorization code exchange.
type Token struct {
	AccessToken  string
	TokenType    string
	Scopes       []string
	Me           string
	Profile      Profile
	ExpiresIn    int
	RefreshToken string
}

// HasScope returns true if the Token was issued with the scope.
func (t Token) HasScope(scope string) bool {
	for _, candidate := range t.Scopes {
		if candidate == scope {
			return true
		}
	}

	return false
}

// Profile is the profile information returned by the token endpoint. Some
// endpoints return only a URL, others an object; both are accepted and the
// original shape is kept when encoding.
type Profile struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Photo string `json:"photo,omitempty"`
	Email string `json:"email,omitempty"`

	urlOnly bool
}

// IsZero reports whether no profile was returned.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

func (p Profile) MarshalJSON() ([]byte, error) {
	if p.urlOnly {
		return json.Marshal(p.URL)
	}
	if p.IsZero() {
		return []byte("null"), nil
	}

	type plain Profile
	return json.Marshal(plain(p))
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Profile{}
		return nil

	case len(data) > 0 && data[0] == '"':
		var u string
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*p = Profile{URL: u, urlOnly: true}
		return nil

	default:
		type plain Profile
		var v plain
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*p = Profile(v)
		return nil
	}
}
