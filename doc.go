/*
Package indieauth signs a user in to their own website using IndieAuth.

The user gives the URL of their site, or "me". The page at that URL advertises
an authorization endpoint and a token endpoint, along with others like micropub
that are remembered for later. The user is sent to the authorization endpoint,
approves the request, and is redirected back with a code that is exchanged at
the token endpoint for an access token.

Flows

Signing in and out is split between two parts that may not share memory. The
part the user interacts with holds a Client; another part, usually longer
lived, runs a Background. They share a Channel to send Messages over and a
Storage that holds the Session.

    store := indieauth.NewSessionStore(storage)

    background := &indieauth.Background{
      Authorizer: &indieauth.Authorizer{
        Resolver: &indieauth.Resolver{},
        Capturer: capturer,
        Store:    store,
      },
      Revoker: &indieauth.Revoker{Store: store},
    }
    go background.Serve(ctx, channel)

    client := indieauth.NewClient(channel, store, nil, indieauth.ObserverFuncs{
      OnSignIn: func(session indieauth.Session) {
        fmt.Println("signed in as", session.Me)
      },
    })
    client.SignIn(ctx, "https://me.example.com/", "https://app.example.com/")

The Client learns that the flow completed by polling the store, so a flow that
fails is noticed only by the Observer never being called. The Background logs
the reason.

Further Reading

Spec: https://indieauth.spec.indieweb.org/
*/
package indieauth
