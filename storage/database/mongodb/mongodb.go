package mongorepos

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	timetableCollection = "timetable"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to `uri` and waits for the server to answer, giving up after `timeout`.
func Open(ctx context.Context, uri, name string, timeout time.Duration) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = timeout
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}
	if err = backoff.Retry(ping, backoff.WithContext(retryBackoff, ctx)); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongo")
	}

	db := &DB{client: client, db: client.Database(name)}
	if err = db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "creating users.username index")
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Drop removes the whole database.
func (db *DB) Drop(ctx context.Context) error {
	return db.db.Drop(ctx)
}
