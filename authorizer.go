package indieauth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"

	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hawx.me/code/indieauth-signin")

// FlowState is the position of a sign-in attempt in the authorization flow.
type FlowState int

const (
	Idle FlowState = iota
	Resolving
	AwaitingRedirect
	Validating
	Exchanging
	SignedIn
	Failed
)

func (s FlowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case AwaitingRedirect:
		return "awaiting-redirect"
	case Validating:
		return "validating"
	case Exchanging:
		return "exchanging"
	case SignedIn:
		return "signed-in"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

// An Authorizer signs users in. Resolver, Capturer and Store are required;
// the remaining fields have defaults.
type Authorizer struct {
	Resolver *Resolver
	Capturer RedirectCapturer
	Store    *SessionStore

	// Challenge defaults to S256.
	Challenge ChallengeDeriver

	// Scopes defaults to DefaultScopes.
	Scopes []string

	// Client is used to talk to the token endpoint.
	Client *http.Client

	// OnTransition, if set, is called every time a sign-in changes state.
	OnTransition func(from, to FlowState)
}

// pendingAuthorization is what must be remembered between sending the user to
// the authorization endpoint and them coming back.
type pendingAuthorization struct {
	state         string
	codeVerifier  string
	codeChallenge string
	redirectURL   string
	endpoints     Endpoints
	scopes        []string
}

// SignIn runs the authorization flow for identityURL, storing the resulting
// Session. It blocks until the user has been redirected back, so will usually
// be run in its own goroutine.
func (a *Authorizer) SignIn(ctx context.Context, identityURL, clientID string) (Session, error) {
	ctx = slogctx.With(ctx, "identity_url", identityURL, "client_id", clientID)
	ctx, span := tracer.Start(ctx, "indieauth.SignIn", trace.WithAttributes(
		attribute.String("indieauth.me", identityURL),
		attribute.String("indieauth.client_id", clientID),
	))
	defer span.End()

	f := &flow{authorizer: a, span: span}

	session, err := f.run(ctx, identityURL, clientID)
	if err != nil {
		f.to(ctx, Failed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slogctx.Warn(ctx, "sign-in failed", "error", err)
		return Session{}, err
	}

	slogctx.Info(ctx, "signed in")
	return session, nil
}

type flow struct {
	authorizer *Authorizer
	span       trace.Span
	state      FlowState
}

func (f *flow) to(ctx context.Context, next FlowState) {
	prev := f.state
	f.state = next

	f.span.AddEvent(next.String())
	slogctx.Debug(ctx, "sign-in state changed", "from", prev, "to", next)

	if f.authorizer.OnTransition != nil {
		f.authorizer.OnTransition(prev, next)
	}
}

func (f *flow) run(ctx context.Context, identityURL, clientID string) (Session, error) {
	a := f.authorizer

	deriver := a.Challenge
	if deriver == nil {
		deriver = S256{}
	}

	scopes := a.Scopes
	if scopes == nil {
		scopes = DefaultScopes
	}

	f.to(ctx, Resolving)

	state, err := GenerateCode(stateLength)
	if err != nil {
		return Session{}, fmt.Errorf("generating state: %w", err)
	}

	verifier, err := GenerateCode(verifierLength)
	if err != nil {
		return Session{}, fmt.Errorf("generating code verifier: %w", err)
	}

	endpoints, err := a.Resolver.FindEndpoints(ctx, identityURL)
	if err != nil {
		return Session{}, err
	}
	if endpoints.Authorization == "" {
		return Session{}, ErrAuthorizationEndpointMissing
	}
	if endpoints.Token == "" {
		return Session{}, ErrTokenEndpointMissing
	}

	redirectURL, err := a.Capturer.RedirectURL(clientID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInteractiveFlowRejected, err)
	}

	pending := &pendingAuthorization{
		state:         state,
		codeVerifier:  verifier,
		codeChallenge: deriver.Challenge(verifier),
		redirectURL:   redirectURL,
		endpoints:     endpoints,
		scopes:        scopes,
	}

	config := &Config{
		ClientID:    clientID,
		RedirectURL: pending.redirectURL,
		Scopes:      pending.scopes,
		Client:      a.Client,
	}

	authURL, err := config.AuthCodeURL(pending.endpoints, pending.state, pending.codeChallenge, deriver.Method(), identityURL)
	if err != nil {
		return Session{}, fmt.Errorf("building authorization url: %w", err)
	}

	f.to(ctx, AwaitingRedirect)

	resultURL, err := a.Capturer.Capture(ctx, authURL)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInteractiveFlowRejected, err)
	}

	f.to(ctx, Validating)

	code, err := pending.validate(resultURL)
	if err != nil {
		return Session{}, err
	}

	f.to(ctx, Exchanging)

	token, err := config.Exchange(ctx, pending.endpoints, code, pending.codeVerifier)
	if err != nil {
		return Session{}, err
	}

	session := Session{
		Me:          identityURL,
		Profile:     token.Profile,
		Endpoints:   pending.endpoints,
		Code:        code,
		AccessToken: token.AccessToken,
	}

	if err := a.Store.Save(ctx, session); err != nil {
		return Session{}, err
	}

	f.to(ctx, SignedIn)
	return session, nil
}

// validate checks the URL the user was redirected to belongs to this
// authorization and returns the code it carries.
func (p *pendingAuthorization) validate(resultURL string) (string, error) {
	u, err := url.Parse(resultURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}

	query := u.Query()

	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(p.state)) != 1 {
		return "", ErrStateMismatch
	}

	if errCode := query.Get("error"); errCode != "" {
		if desc := query.Get("error_description"); desc != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrInteractiveFlowRejected, errCode, desc)
		}
		return "", fmt.Errorf("%w: %s", ErrInteractiveFlowRejected, errCode)
	}

	return query.Get("code"), nil
}
