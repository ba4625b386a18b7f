package ignite_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/aussiebroadwan/ignite/internal/testkit"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/stretchr/testify/require"
)

// TestSessionLifecycle covers the full flow against a real Redis:
// 1. Sign in and persist the session
// 2. Restore it in a second process
// 3. Refresh after expiry, with every concurrent caller sharing one exchange
// 4. Restore the rotated pair in a third process
// 5. Sign out and verify nothing is left behind
func TestSessionLifecycle(t *testing.T) {
	redisURL := setupRedisContainer(t)
	api := testkit.NewAPI(t)
	cfg := redisConfig(api, redisURL, "lifecycle")

	first := startApp(t, cfg)
	require.NoError(t, first.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))
	signedInToken := first.Client().AuthorizationToken()
	require.NoError(t, first.Close())

	second := startApp(t, cfg)
	require.Equal(t, "1", second.Session().User().ID)
	require.Equal(t, signedInToken, second.Client().AuthorizationToken())

	api.ExpireAccessTokens()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := second.Client().History(t.Context())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, api.RefreshCalls())

	rotatedToken := second.Client().AuthorizationToken()
	require.NotEqual(t, signedInToken, rotatedToken)
	require.NoError(t, second.Close())

	third := startApp(t, cfg)
	require.Equal(t, rotatedToken, third.Client().AuthorizationToken())

	_, err := third.Client().Groups(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, api.RefreshCalls(), "restored pair is used without another refresh")

	require.NoError(t, third.Session().SignOut(t.Context()))
	require.NoError(t, third.Close())

	fourth := startApp(t, cfg)
	require.False(t, fourth.Session().State().Snapshot().SignedIn())
}

func TestFailedRefreshClearsRedis(t *testing.T) {
	redisURL := setupRedisContainer(t)
	api := testkit.NewAPI(t)
	cfg := redisConfig(api, redisURL, "revoked")

	first := startApp(t, cfg)
	require.NoError(t, first.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))

	api.ExpireAccessTokens()
	api.FailRefresh(http.StatusUnauthorized, "token.invalid")

	_, err := first.Client().History(t.Context())
	require.ErrorIs(t, err, ignitesdk.ErrUnauthenticated)
	require.True(t, first.Session().User().IsZero())
	require.NoError(t, first.Close())

	second := startApp(t, cfg)
	require.False(t, second.Session().State().Snapshot().SignedIn())
}

func TestPrefixesIsolateSessions(t *testing.T) {
	redisURL := setupRedisContainer(t)
	api := testkit.NewAPI(t)
	api.AddUser("B", "b@x.io", "pw")

	alice := startApp(t, redisConfig(api, redisURL, "alice"))
	bob := startApp(t, redisConfig(api, redisURL, "bob"))

	require.NoError(t, alice.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))
	require.NoError(t, bob.Session().SignIn(t.Context(), "b@x.io", "pw"))

	require.NoError(t, alice.Session().SignOut(t.Context()))

	restored := startApp(t, redisConfig(api, redisURL, "bob"))
	require.Equal(t, "B", restored.Session().User().Name)
}
