package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config is the MongoDB deployment holding the CRM collections.
type Config struct {
	URI      string
	Database string
	// AppName shows up in server logs and currentOp.
	AppName string
	Timeout time.Duration
}

// Connect opens a client against cfg.Database and pings the primary. The
// returned database is shared by every repository in this package.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}

// anyID matches a business key stored either as a string or as a number.
// Lead IDs are numeric in Leads but arrive as strings from clients.
func anyID(id string) bson.M {
	values := bson.A{id}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		values = append(values, n)
	}
	return bson.M{"$in": values}
}
