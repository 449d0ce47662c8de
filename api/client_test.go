package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govindavashishtha/arcfit-admin/api"
)

// fakeTokens is a TokenSource whose token can be swapped mid-test.
type fakeTokens struct {
	mu    sync.Mutex
	token string
}

func (f *fakeTokens) AccessToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeTokens) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func TestBearerTransportReadsTokenAtCallTime(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"user_id":"u1"}}`))
	}))
	defer server.Close()

	tokens := &fakeTokens{}
	client := api.New(server.URL, tokens)

	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	tokens.set("AT1")
	_, err = client.CurrentUser(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"", "Bearer AT1"}, seen)
}

func TestLoginAndRefreshOmitStoredBearerToken(t *testing.T) {
	headers := make(map[string]string)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers[r.URL.Path] = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer server.Close()

	// A stale token in the store must never ride a credential exchange.
	client := api.New(server.URL, &fakeTokens{token: "STALE"})

	_, err := client.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	_, err = client.Refresh(context.Background(), "RT1")
	require.NoError(t, err)
	_, err = client.CurrentUser(context.Background())
	require.NoError(t, err)

	require.Empty(t, headers[api.RouteAdminLogin])
	require.Empty(t, headers[api.RouteRefresh])
	require.Equal(t, "Bearer STALE", headers[api.RouteCurrentUser])
}

func TestNewLeavesCallerClientUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, []string{"Bearer AT1"}, r.Header.Values("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer server.Close()

	hc := &http.Client{}
	first := api.New(server.URL, &fakeTokens{token: "AT1"}, api.WithHTTPClient(hc))
	api.New(server.URL, &fakeTokens{token: "AT2"}, api.WithHTTPClient(hc))

	// The shared client keeps its own transport; the first client's bearer
	// wrapping is not stacked by the second New.
	require.Nil(t, hc.Transport)
	_, err := first.CurrentUser(context.Background())
	require.NoError(t, err)
}

func TestLoginSplitsCredentialsAndProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, api.RouteAdminLogin, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"access_token": "AT1",
				"refresh_token": "RT1",
				"expires_in": 3600,
				"user_id": "u1",
				"email": "a@b.com",
				"first_name": "Jo",
				"role": "super_admin",
				"center_id": "c-01"
			}
		}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{})
	result, err := client.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	require.Equal(t, "AT1", result.Credentials.AccessToken)
	require.Equal(t, "RT1", result.Credentials.RefreshToken)
	require.Equal(t, int64(3600), result.Credentials.ExpiresIn)

	require.Equal(t, "u1", result.Profile.UserID)
	require.Equal(t, "Jo", result.Profile.FirstName)
	require.Equal(t, "super_admin", result.Profile.Role)
	require.Equal(t, "c-01", result.Profile.CenterID)
}

func TestFailureEnvelopeBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid email or password"}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{})
	_, err := client.Login(context.Background(), "a@b.com", "bad")
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.Equal(t, "invalid email or password", apiErr.Message)
}

func TestSuccessFalseWithOKStatusIsStillAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"something went wrong"}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{})
	_, err := client.CurrentUser(context.Background())

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "something went wrong", apiErr.Message)
}

func TestLogoutAcceptsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "RT1", body["refresh_token"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{})
	require.NoError(t, client.Logout(context.Background(), "RT1"))
}

func TestListMembersEncodesPageParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.RouteMembers, r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		require.Equal(t, "jo", r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"items":[{"member_id":"m-001","first_name":"Jo"}],"total":11,"page":2,"limit":10}
		}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{token: "AT1"})
	page, err := client.ListMembers(context.Background(), api.PageParams{Page: 2, Limit: 10, Search: "jo"})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	require.Equal(t, "m-001", page.Items[0].MemberID)
	require.Equal(t, 11, page.Total)
}

func TestImportMembersCSVUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, api.RouteMembersImport, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "members.csv", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"imported":2,"failed":0}}`))
	}))
	defer server.Close()

	client := api.New(server.URL, &fakeTokens{token: "AT1"})
	csv := "first_name,last_name,email,center_id\nJo,F,jo@x.com,c-01\nPriya,N,p@x.com,c-01\n"

	result, err := client.ImportMembersCSV(context.Background(), "members.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 0, result.Failed)
}
