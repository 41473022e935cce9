package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          map[string]any
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.EscapedPath()
		rec.Authorization = r.Header.Get("Authorization")
		rec.ContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClient_Login(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK,
		`{"success":true,"data":{"token":"tok-1","user":{"_id":"u1","username":"alice"}}}`)
	c := New(srv.URL+"/api", "", srv.Client())

	res := c.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "secret"})
	require.True(t, res.Success)
	require.Empty(t, res.Error)
	require.NoError(t, res.Err())
	require.Equal(t, "tok-1", res.Data.Token)
	require.Equal(t, "u1", res.Data.User.ID)

	require.Equal(t, http.MethodPost, rec.Method)
	require.Equal(t, "/api/auth/login", rec.Path)
	require.Equal(t, "application/json", rec.ContentType)
	require.Empty(t, rec.Authorization)
	require.Equal(t, "a@example.com", rec.Body["email"])
}

func TestClient_AuthorizationHeader(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"data":[]}`)

	res := New(srv.URL+"/", "", srv.Client()).Conversations(context.Background(), "tok-1")
	require.True(t, res.Success)
	require.Equal(t, "tok-1", rec.Authorization)
	require.Equal(t, "/chats/all", rec.Path)

	res = New(srv.URL+"/", "Bearer", srv.Client()).Conversations(context.Background(), "tok-1")
	require.True(t, res.Success)
	require.Equal(t, "Bearer tok-1", rec.Authorization)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"Backend error field", http.StatusConflict, `{"error":"Friend request already sent"}`, "Friend request already sent"},
		{"Backend message field", http.StatusBadRequest, `{"message":"Email is taken"}`, "Email is taken"},
		{"No body", http.StatusInternalServerError, ``, "Request failed with status 500"},
		{"HTML body", http.StatusBadGateway, `<html>bad gateway</html>`, "Request failed with status 502"},
		{"Malformed data", http.StatusOK, `{"data":"not-a-list"}`, badResponseMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			res := New(srv.URL+"/", "", srv.Client()).Users(context.Background(), "tok")
			require.False(t, res.Success)
			require.Equal(t, tt.wantErr, res.Error)
			require.EqualError(t, res.Err(), tt.wantErr)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(url+"/", "", nil).Profile(context.Background(), "tok")
	require.False(t, res.Success)
	require.Equal(t, networkErrorMessage, res.Error)
}

func TestClient_EmptyData(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"success":true}`)
	res := New(srv.URL+"/", "", srv.Client()).Notifications(context.Background(), "tok")
	require.True(t, res.Success)
	require.Empty(t, res.Data)
}

func TestClient_Endpoints(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) bool
		method string
		path   string
		body   map[string]any
	}{
		{
			"Signup",
			func(c *Client) bool {
				return c.Signup(context.Background(), SignupRequest{Username: "alice", Email: "a@example.com", Password: "pw"}).Success
			},
			http.MethodPost, "/auth/signup",
			map[string]any{"username": "alice", "email": "a@example.com", "password": "pw"},
		},
		{
			"UpdateProfile",
			func(c *Client) bool {
				return c.UpdateProfile(context.Background(), "t", ProfileUpdate{Bio: "hello"}).Success
			},
			http.MethodPost, "/auth/profile/update",
			map[string]any{"bio": "hello"},
		},
		{
			"CreateChat",
			func(c *Client) bool { return c.CreateChat(context.Background(), "t", "u2").Success },
			http.MethodPost, "/chats/create",
			map[string]any{"participantUserId": "u2"},
		},
		{
			"Friends",
			func(c *Client) bool { return c.Friends(context.Background(), "t").Success },
			http.MethodGet, "/friends/all", nil,
		},
		{
			"FriendRequests",
			func(c *Client) bool { return c.FriendRequests(context.Background(), "t").Success },
			http.MethodGet, "/friends/requests", nil,
		},
		{
			"SendFriendRequest",
			func(c *Client) bool { return c.SendFriendRequest(context.Background(), "t", "u3").Success },
			http.MethodPost, "/friends/requests",
			map[string]any{"targetUserId": "u3"},
		},
		{
			"RespondFriendRequest",
			func(c *Client) bool {
				return c.RespondFriendRequest(context.Background(), "t", "r/1", FriendReject).Success
			},
			http.MethodPost, "/friends/requests/r%2F1/respond",
			map[string]any{"action": "reject"},
		},
		{
			"DashboardStats",
			func(c *Client) bool { return c.DashboardStats(context.Background(), "t").Success },
			http.MethodGet, "/stats/dashboard", nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newTestServer(t, http.StatusOK, `{"success":true}`)
			require.True(t, tt.call(New(srv.URL, "", srv.Client())))
			require.Equal(t, tt.method, rec.Method)
			require.Equal(t, tt.path, rec.Path)
			require.Equal(t, tt.body, rec.Body)
		})
	}
}

func TestResult_Err(t *testing.T) {
	require.NoError(t, Result[int]{Success: true}.Err())
	require.EqualError(t, Result[int]{}.Err(), "An unknown error occurred")
}

func TestMasked(t *testing.T) {
	require.Equal(t, "", masked(""))
	require.Equal(t, "<redacted>", masked("ab"))
	require.Equal(t, "t*****n", masked("token"))
}
