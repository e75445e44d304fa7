package main

import (
	"fmt"
	"os"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/golden-vcr/auth"
	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/rmq"
	"github.com/golden-vcr/server-common/twitch"
	"github.com/golden-vcr/shoutout/internal/apptoken"
	"github.com/golden-vcr/shoutout/internal/callback"
	"github.com/golden-vcr/shoutout/internal/chat"
	"github.com/golden-vcr/shoutout/internal/fanout"
	"github.com/golden-vcr/shoutout/internal/metrics"
	"github.com/golden-vcr/shoutout/internal/raid"
	"github.com/golden-vcr/shoutout/internal/subscription"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort int    `env:"LISTEN_PORT" default:"3000"`
	Origin     string `env:"ORIGIN" default:"https://goldenvcr.com/api/shoutout"`

	TwitchChannelName   string `env:"TWITCH_CHANNEL_NAME" required:"true"`
	TwitchClientId      string `env:"TWITCH_CLIENT_ID" required:"true"`
	TwitchClientSecret  string `env:"TWITCH_CLIENT_SECRET" required:"true"`
	TwitchWebhookSecret string `env:"TWITCH_WEBHOOK_SECRET" required:"true"`
	TwitchSenderId      string `env:"TWITCH_SENDER_ID" required:"true"`

	RaidMessage string `env:"RAID_MESSAGE" required:"true"`

	RmqHost     string `env:"RMQ_HOST"`
	RmqPort     int    `env:"RMQ_PORT" default:"5672"`
	RmqVhost    string `env:"RMQ_VHOST" default:"/"`
	RmqUser     string `env:"RMQ_USER"`
	RmqPassword string `env:"RMQ_PASSWORD"`

	AuthURL string `env:"AUTH_URL" default:"http://localhost:5002"`
}

func main() {
	app := entry.NewApplication("shoutout")
	defer app.Stop()
	ctx := app.Context()

	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		app.Fail("Failed to load .env file", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		app.Fail("Failed to load config", err)
	}

	// If we have an AMQP server configured, republish every verified notification to
	// the twitch-events exchange; otherwise just drop them after handling
	var publisher fanout.Publisher = fanout.Discard{}
	if config.RmqHost != "" {
		amqpConn, err := amqp.Dial(rmq.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
		if err != nil {
			app.Fail("Failed to connect to AMQP server", err)
		}
		defer amqpConn.Close()
		producer, err := fanout.NewProducer(amqpConn, "twitch-events")
		if err != nil {
			app.Fail("Failed to initialize AMQP producer", err)
		}
		publisher = producer
	}

	// Initialize an auth client so we can require broadcaster-level access in order to
	// call the admin-only subscription management endpoints
	authClient, err := auth.NewClient(ctx, config.AuthURL)
	if err != nil {
		app.Fail("Failed to initialize auth client", err)
	}

	// Resolve the Twitch User ID of our channel, which is the channel whose outgoing
	// raids we subscribe to
	twitchClient, err := twitch.NewClientWithAppToken(ctx, config.TwitchClientId, config.TwitchClientSecret)
	if err != nil {
		app.Fail("Failed to initialize Twitch API client", err)
	}
	channelUserId, err := twitch.ResolveChannelUserId(twitchClient, config.TwitchChannelName)
	if err != nil {
		app.Fail(fmt.Sprintf("Failed to resolve Twitch user ID for channel '%s'", config.TwitchChannelName), err)
	}
	app.Log().Info(
		"Initialized broadcaster channel details",
		"channelName", config.TwitchChannelName,
		"channelUserId", channelUserId,
		"senderId", config.TwitchSenderId,
	)

	m := metrics.New()
	tokens := apptoken.NewStore(config.TwitchClientId, config.TwitchClientSecret, m)
	raids := raid.NewHandler(tokens, chat.NewClient(config.TwitchClientId), config.TwitchSenderId, config.RaidMessage, m)

	r := mux.NewRouter()

	// Twitch calls POST / with EventSub messages; GET / identifies the service
	callbackServer := callback.NewServer(config.TwitchWebhookSecret, raids, publisher, m)
	callbackServer.RegisterRoutes(r)

	// A client authenticated as the broadcaster can call GET /subscriptions to view the
	// status of our channel.raid subscription, PATCH to create it if missing, and
	// DELETE to remove it
	subscriptionServer := subscription.NewServer(
		config.Origin,
		channelUserId,
		config.TwitchClientId,
		config.TwitchClientSecret,
		config.TwitchWebhookSecret,
	)
	subscriptionServer.RegisterRoutes(authClient, r)

	m.RegisterRoutes(r)

	// Handle incoming HTTP connections until our top-level context is canceled, at
	// which point shut down cleanly
	entry.RunServer(app, r, config.BindAddr, config.ListenPort)
}
