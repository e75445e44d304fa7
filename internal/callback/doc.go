// Package callback implements the HTTP server functionality required to handle incoming
// EventSub webhook requests from Twitch, as described in
// https://dev.twitch.tv/docs/eventsub/handling-webhook-events/
//
// Every request must carry a valid signature; once verified, the request is routed by
// its Twitch-Eventsub-Message-Type header. Notifications are always acknowledged with
// a 204, whether or not we manage to act on them: Twitch only cares that we received
// the event in time.
package callback
