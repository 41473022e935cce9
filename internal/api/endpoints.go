package api

import (
	"context"
	"net/http"
	"net/url"

	"parley/internal/models"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`
}

type FriendResponse string

const (
	FriendAccept FriendResponse = "accept"
	FriendReject FriendResponse = "reject"
)

func (c *Client) Signup(ctx context.Context, req SignupRequest) Result[AuthPayload] {
	return call[AuthPayload](ctx, c, http.MethodPost, "auth/signup", "", req)
}

func (c *Client) Login(ctx context.Context, req LoginRequest) Result[AuthPayload] {
	return call[AuthPayload](ctx, c, http.MethodPost, "auth/login", "", req)
}

func (c *Client) Profile(ctx context.Context, token string) Result[models.Profile] {
	return call[models.Profile](ctx, c, http.MethodGet, "auth/profile", token, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) Result[models.Profile] {
	return call[models.Profile](ctx, c, http.MethodPost, "auth/profile/update", token, update)
}

func (c *Client) Conversations(ctx context.Context, token string) Result[[]models.ChatRecord] {
	return call[[]models.ChatRecord](ctx, c, http.MethodGet, "chats/all", token, nil)
}

// CreateChat opens a direct conversation with participantUserID.
func (c *Client) CreateChat(ctx context.Context, token, participantUserID string) Result[models.ChatRecord] {
	body := map[string]string{"participantUserId": participantUserID}
	return call[models.ChatRecord](ctx, c, http.MethodPost, "chats/create", token, body)
}

func (c *Client) Friends(ctx context.Context, token string) Result[[]models.Friend] {
	return call[[]models.Friend](ctx, c, http.MethodGet, "friends/all", token, nil)
}

func (c *Client) FriendRequests(ctx context.Context, token string) Result[[]models.Friend] {
	return call[[]models.Friend](ctx, c, http.MethodGet, "friends/requests", token, nil)
}

func (c *Client) SendFriendRequest(ctx context.Context, token, targetUserID string) Result[models.Friend] {
	body := map[string]string{"targetUserId": targetUserID}
	return call[models.Friend](ctx, c, http.MethodPost, "friends/requests", token, body)
}

func (c *Client) RespondFriendRequest(ctx context.Context, token, requestID string, action FriendResponse) Result[models.Friend] {
	body := map[string]FriendResponse{"action": action}
	endpoint := "friends/requests/" + url.PathEscape(requestID) + "/respond"
	return call[models.Friend](ctx, c, http.MethodPost, endpoint, token, body)
}

func (c *Client) Users(ctx context.Context, token string) Result[[]models.People] {
	return call[[]models.People](ctx, c, http.MethodGet, "users/all", token, nil)
}

func (c *Client) Notifications(ctx context.Context, token string) Result[[]models.Notification] {
	return call[[]models.Notification](ctx, c, http.MethodGet, "notifications/all", token, nil)
}

func (c *Client) DashboardStats(ctx context.Context, token string) Result[models.Stats] {
	return call[models.Stats](ctx, c, http.MethodGet, "stats/dashboard", token, nil)
}
