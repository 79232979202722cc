package handlers

import "net/http"

// Routes groups the handlers served under /api.
type Routes struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Users   *UserHandler
	Friends *FriendHandler
}

// Register mounts every route on mux. requireAuth wraps routes that need a
// signed in user; limitSend additionally wraps friend request sends.
func (rt Routes) Register(mux *http.ServeMux, requireAuth, limitSend func(http.Handler) http.Handler) {
	authed := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Ready)
		mux.HandleFunc("GET /live", rt.Health.Live)
	}

	mux.HandleFunc("POST /api/auth/register", rt.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", rt.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)

	mux.Handle("GET /api/users", authed(rt.Users.List))
	mux.Handle("GET /api/users/me", authed(rt.Auth.Me))
	mux.Handle("GET /api/users/{username}", authed(rt.Users.Get))
	mux.Handle("PATCH /api/users/{username}", authed(rt.Users.Update))
	mux.Handle("DELETE /api/users/{username}", authed(rt.Users.Delete))

	mux.Handle("POST /api/users/{username}/friend-request", requireAuth(limitSend(http.HandlerFunc(rt.Friends.SendRequest))))
	mux.Handle("DELETE /api/users/{username}/friend-request", authed(rt.Friends.CancelRequest))
	mux.Handle("POST /api/users/{username}/accept-friend-request", authed(rt.Friends.AcceptRequest))
	mux.Handle("DELETE /api/users/{username}/decline-friend-request", authed(rt.Friends.DeclineRequest))

	mux.Handle("GET /api/friends", authed(rt.Friends.List))
	mux.Handle("GET /api/friends/requests/incoming", authed(rt.Friends.IncomingRequests))
	mux.Handle("GET /api/friends/requests/outgoing", authed(rt.Friends.OutgoingRequests))
	mux.Handle("DELETE /api/friends/{username}", authed(rt.Friends.Remove))
}
