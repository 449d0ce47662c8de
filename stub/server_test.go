package stub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/govindavashishtha/arcfit-admin/api"
	"github.com/govindavashishtha/arcfit-admin/credentials"
	"github.com/govindavashishtha/arcfit-admin/credentials/memoryrepo"
	"github.com/govindavashishtha/arcfit-admin/internal/config"
	"github.com/govindavashishtha/arcfit-admin/session"
	"github.com/govindavashishtha/arcfit-admin/stub"
)

// testFixture wires the full SDK against an in-process stub server, the
// way the CLI wires it against the real backend.
type testFixture struct {
	server  *httptest.Server
	store   *credentials.Store
	client  *api.Client
	manager *session.Manager
}

func setupTestFixture(t *testing.T, options ...stub.Option) *testFixture {
	t.Helper()

	stubServer, err := stub.NewWithOptions(config.New(), options...)
	require.NoError(t, err)

	server := httptest.NewServer(stubServer)
	t.Cleanup(server.Close)

	store, err := credentials.NewStore(memoryrepo.New())
	require.NoError(t, err)

	client := api.New(server.URL, store)

	manager, err := session.New(client, store, session.WithCheckInterval(time.Hour))
	require.NoError(t, err)
	t.Cleanup(manager.Stop)

	return &testFixture{
		server:  server,
		store:   store,
		client:  client,
		manager: manager,
	}
}

func TestFullSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	state := f.manager.State()
	require.True(t, state.IsAuthenticated)
	require.Equal(t, "admin@arcfit.in", state.User.Email)
	require.Equal(t, "super_admin", state.User.Role)

	profile, err := f.manager.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, state.User.UserID, profile.UserID)

	before, _ := f.store.AccessToken()
	require.NoError(t, f.manager.Refresh(ctx))
	after, _ := f.store.AccessToken()
	require.NotEqual(t, before, after)

	refreshToken, ok := f.store.RefreshToken()
	require.True(t, ok)

	require.NoError(t, f.manager.Logout(ctx))
	require.False(t, f.manager.State().IsAuthenticated)
	_, ok = f.store.AccessToken()
	require.False(t, ok)

	// The refresh token was invalidated server-side on logout.
	_, err = f.client.Refresh(ctx, refreshToken)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := setupTestFixture(t)

	err := f.manager.Login(context.Background(), "admin@arcfit.in", "wrong")
	require.Error(t, err)

	state := f.manager.State()
	require.False(t, state.IsAuthenticated)
	require.Equal(t, "Invalid email or password.", state.Error)
}

func TestSeededCenterAdminCarriesCenterScope(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.manager.Login(context.Background(), "center@arcfit.in", "center-admin"))

	state := f.manager.State()
	require.Equal(t, "center_admin", state.User.Role)
	require.Equal(t, "c-01", state.User.CenterID)
	require.Equal(t, "s-01", state.User.SocietyID)
}

func TestSeedingAdditionalUsers(t *testing.T) {
	f := setupTestFixture(t, stub.WithUser("pass-123", api.Profile{
		UserID:    "u-extra",
		Email:     "extra@arcfit.in",
		FirstName: "Extra",
		Role:      "center_admin",
		CenterID:  "c-02",
	}))

	require.NoError(t, f.manager.Login(context.Background(), "extra@arcfit.in", "pass-123"))
	require.Equal(t, "u-extra", f.manager.State().User.UserID)
}

func TestDomainRoutesRequireBearerToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.ListMembers(context.Background(), api.PageParams{})

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestListCentersPaginatesAndFilters(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	page, err := f.client.ListCenters(ctx, api.PageParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 3, page.Total)

	page, err = f.client.ListCenters(ctx, api.PageParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = f.client.ListCenters(ctx, api.PageParams{Search: "powai"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "c-03", page.Items[0].CenterID)
}

func TestImportMembersCountsGoodAndBadRows(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	csv := strings.Join([]string{
		"first_name,last_name,email,center_id",
		"Dev,Menon,dev.menon@example.com,c-01",
		"Broken,Row,not-an-email,c-01",
		"Lena,Thomas,lena.thomas@example.com,c-02",
	}, "\n")

	result, err := f.client.ImportMembersCSV(ctx, "members.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "line 3")

	page, err := f.client.ListMembers(ctx, api.PageParams{Search: "lena.thomas"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "c-02", page.Items[0].CenterID)
}

func TestImportIsScopedToServerInstance(t *testing.T) {
	first := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, first.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	csv := "first_name,last_name,email,center_id\nLeak,Check,leak.check@example.com,c-01\n"
	result, err := first.client.ImportMembersCSV(ctx, "members.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	page, err := first.client.ListMembers(ctx, api.PageParams{Search: "leak.check"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// A freshly constructed server starts from the seed data only.
	second := setupTestFixture(t)
	require.NoError(t, second.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	page, err = second.client.ListMembers(ctx, api.PageParams{Search: "leak.check"})
	require.NoError(t, err)
	require.Empty(t, page.Items)

	page, err = second.client.ListMembers(ctx, api.PageParams{})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
}

func TestImportMembersRejectsMissingColumns(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))

	_, err := f.client.ImportMembersCSV(ctx, "members.csv", strings.NewReader("first_name,last_name\nJo,F\n"))

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Contains(t, apiErr.Message, "email")
}

func TestShortLivedTokenIsRefreshedBeforeProtectedCall(t *testing.T) {
	f := setupTestFixture(t, stub.WithAccessTokenExpiry(time.Second))
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, "admin@arcfit.in", "arcfit-admin"))
	before, _ := f.store.AccessToken()

	// expires_in=1s sits inside the expiry buffer, so the token is already
	// considered stale and the next protected call refreshes it first.
	require.True(t, f.store.IsExpired())
	_, err := f.manager.CurrentUser(ctx)
	require.NoError(t, err)

	after, _ := f.store.AccessToken()
	require.NotEqual(t, before, after)
	require.True(t, f.manager.State().IsAuthenticated)
}
