package indieauth

// Session is the record kept for a signed-in user. It is written in full when
// a sign-in completes and removed in full when a sign-out completes.
type Session struct {
	Me           string    `json:"me"`
	Profile      Profile   `json:"profile"`
	Endpoints    Endpoints `json:"endpoints"`
	Code         string    `json:"code"`
	AccessToken  string    `json:"accessToken"`
	ExpiresIn    string    `json:"expiresIn"`
	RefreshToken string    `json:"refreshToken"`
}

// Storage keys used for each Session field.
const (
	keyMe           = "me"
	keyProfile      = "profile"
	keyEndpoints    = "endpoints"
	keyCode         = "code"
	keyAccessToken  = "accessToken"
	keyExpiresIn    = "expiresIn"
	keyRefreshToken = "refreshToken"
)

// SessionKeys lists the storage keys that make up a Session.
var SessionKeys = []string{
	keyMe,
	keyProfile,
	keyEndpoints,
	keyCode,
	keyAccessToken,
	keyExpiresIn,
	keyRefreshToken,
}
