package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	users := UserHandler{Users: deps.Users, Avatars: deps.Avatars}
	friends := FriendHandler{Friends: deps.Friends, Limiter: deps.FriendLimiter}
	activities := ActivityHandler{Feed: deps.Feed}
	chat := ChatHandler{Chat: deps.Chat}
	stream := ChatStreamHandler{Subscriber: deps.ChatStream}
	catalog := MediaHandler{Catalog: deps.Catalog}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/users", users.List)
	mux.HandleFunc("/api/v1/users/profile", users.Profile)
	mux.HandleFunc("/api/v1/users/avatar", users.UploadAvatar)
	mux.HandleFunc("/api/v1/friends", friends.List)
	mux.HandleFunc("/api/v1/friends/requests", friends.Requests)
	mux.HandleFunc("/api/v1/friends/request", friends.Request)
	mux.HandleFunc("/api/v1/friends/accept", friends.Accept)
	mux.HandleFunc("/api/v1/friends/reject", friends.Reject)
	mux.HandleFunc("/api/v1/friends/remove", friends.Remove)
	mux.HandleFunc("/api/v1/activities", activities.Activities)
	mux.HandleFunc("/api/v1/activities/feed", activities.FriendsFeed)
	mux.HandleFunc("/api/v1/activities/like", activities.ToggleLike)
	mux.HandleFunc("/api/v1/activities/comments", activities.Comments)
	mux.HandleFunc("/api/v1/chat/messages", chat.Messages)
	mux.HandleFunc("/api/v1/chat/groups", chat.Groups)
	mux.HandleFunc("/api/v1/chat/ws", stream.Stream)
	mux.HandleFunc("/api/v1/media/trending", catalog.Trending)
	mux.HandleFunc("/api/v1/media/search", catalog.Search)
	mux.HandleFunc("/api/v1/media/details", catalog.Details)
	mux.HandleFunc("/api/v1/media/seasons", catalog.Seasons)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Friends       FriendService
	Feed          FeedService
	Chat          ChatService
	ChatStream    ChatSubscriber
	Catalog       MediaCatalog
	Avatars       AvatarStore
	AuthLimiter   RateLimiter
	FriendLimiter RateLimiter
}
