package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	retryDelay     = 2 * time.Second
	disconnectWait = 30 * time.Second
)

func clientOptions(cfg Config) *options.ClientOptions {
	return options.Client().ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority())).
		SetReadConcern(readconcern.Majority()).
		SetReadPreference(readpref.Primary())
}

// ConnectMongo opens a client and checks liveness with a ping against the
// primary. The client is disconnected again if the ping fails.
func ConnectMongo(ctx context.Context, cfg Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging MongoDB")
	}
	return client, nil
}

// ConnectWithRetry calls ConnectMongo up to cfg.ConnectRetries times.
func ConnectWithRetry(ctx context.Context, cfg Config, logger *slog.Logger) (*mongo.Client, error) {
	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		var client *mongo.Client
		client, err = ConnectMongo(ctx, cfg)
		if err == nil {
			logger.Info("Connected to MongoDB", "database", cfg.Database)
			return client, nil
		}
		logger.Warn("Failed to connect to MongoDB", "attempt", i+1, "of", attempts, "error", err)
		if i+1 < attempts {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "connecting to MongoDB")
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, errors.Wrapf(err, "failed to connect after %d attempts", attempts)
}

// CheckMongoHealth pings the primary with a short deadline.
func CheckMongoHealth(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "MongoDB health check failed")
	}
	return nil
}

// CloseDB disconnects the client, waiting at most 30 seconds.
func CloseDB(client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectWait)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Error closing MongoDB connection", "error", err)
	}
}
