// Package deviceauth obtains a user access token for the chatter account via the
// OAuth device code grant flow, as described in
// https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/#device-code-grant-flow
//
// We first request a device code, then show the operator a verification URI and user
// code to enter there. While they do that, we poll the token endpoint once a second:
// Twitch answers 400 until the user has approved our app, at which point it issues an
// access token and refresh token. The poll stops for good once we have tokens, or when
// the caller's context is canceled.
package deviceauth
