/*
Package ignitesdk provides a client for the Ignite Gym API.

# Overview

A single Client is shared by the whole process. It carries the default
headers sent with every request, including the bearer token of the signed in
user, and routes 401 responses through a refresh interceptor.

	client := ignitesdk.NewClient("http://localhost:3333")

	resp, err := client.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	client.SetAuthorizationHeader(resp.Token)

	groups, err := client.Groups(ctx)

# Token Refresh

Access tokens are short lived. Register an interceptor so expired tokens are
exchanged transparently:

	unregister := client.RegisterUnauthorizedInterceptor(store, signOut)
	defer unregister()

When a request comes back 401 the interceptor reads the refresh token from
store, exchanges it at /sessions/refresh-token, persists the new pair and
replays the request with the new token. Requests that fail with 401 while the
exchange is in flight wait for it instead of starting their own, and are
replayed in the order they arrived. A replayed request is never refreshed a
second time.

If the exchange fails, signOut is called once and every waiting request fails
with ErrUnauthenticated.

# Errors

Failed calls return one of:

  - *NetworkError: no response was received
  - *AppError: the server answered with a message meant for the user
  - *StatusError: the server answered with an error status and nothing else

UserMessage picks the text to show for any of them:

	msg := ignitesdk.UserMessage(err, "Not possible to load exercises.")
*/
package ignitesdk
