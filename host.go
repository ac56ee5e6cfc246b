package indieauth

import "context"

// A RedirectCapturer shows the authorization page to the user and captures
// the URL they are finally redirected to.
type RedirectCapturer interface {
	// RedirectURL returns the redirect_uri to register for clientID.
	RedirectURL(clientID string) (string, error)

	// Capture opens authURL and blocks until the user is redirected back to
	// the redirect URL, returning the full URL redirected to. It returns an
	// error if the user cancels or ctx is done.
	Capture(ctx context.Context, authURL string) (string, error)
}

// Actions that can be sent in a Message.
const (
	ActionSignIn  = "sign-in"
	ActionSignOut = "sign-out"
)

// Message is sent from a Client to a Background.
type Message struct {
	Action  string          `json:"action"`
	Details *MessageDetails `json:"details,omitempty"`
}

// MessageDetails are the arguments of a sign-in Message.
type MessageDetails struct {
	IdentityURL string `json:"identityURL"`
	ClientID    string `json:"clientID"`
}

// A Channel delivers Messages to the background context. Sending does not
// wait for the message to be acted on.
type Channel interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (<-chan Message, error)
}

// An Observer is told when a sign-in or sign-out started by a Client has
// completed. Neither method is called if the flow fails.
type Observer interface {
	SignInComplete(session Session)
	SignOutComplete()
}

// ObserverFuncs adapts a pair of functions to an Observer. Either may be nil.
type ObserverFuncs struct {
	OnSignIn  func(Session)
	OnSignOut func()
}

func (o ObserverFuncs) SignInComplete(session Session) {
	if o.OnSignIn != nil {
		o.OnSignIn(session)
	}
}

func (o ObserverFuncs) SignOutComplete() {
	if o.OnSignOut != nil {
		o.OnSignOut()
	}
}
