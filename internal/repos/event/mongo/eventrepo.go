// Package mongo provides an event repository that stores its data inside a MongoDB collection
package mongo

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/models"
)

const (
	connectTimeout = 10 * time.Second
	// Collection holding the insertion counters, one document per event collection
	countersCollection = "counters"
)

// EventRepo is a repository that stores its data inside a MongoDB collection
type EventRepo struct {
	client   *mongo.Client
	coll     *mongo.Collection
	counters *mongo.Collection
	logger   *logrus.Entry
}

// eventDocument is the stored form of an event. Seq orders events sharing the same millisecond
type eventDocument struct {
	models.Event `bson:",inline"`
	Seq          int64 `bson:"seq"`
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// Connect opens the client connection to the given MongoDB server and checks that it is reachable. The returned
// repository holds the client for the lifetime of the process
func Connect(ctx context.Context, uri, database, collection string, logger *logrus.Entry) (*EventRepo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "Connect: Failed to create MongoDB client")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "Connect: MongoDB server not reachable")
	}
	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "Connect: Failed to create createdAt index")
	}
	return &EventRepo{
		client:   client,
		coll:     coll,
		counters: client.Database(database).Collection(countersCollection),
		logger:   logger,
	}, nil
}

// Create inserts a new event document, numbered with the next value of the collection's insertion counter
func (r *EventRepo) Create(ctx context.Context, ev *models.Event) error {
	r.logger.WithFields(logrus.Fields{log.FldID: ev.ID, log.FldTitle: ev.Title}).Debug("Adding new event")
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, eventDocument{Event: *ev, Seq: seq})
	return errors.Wrap(err, "Create: Failed to insert event document")
}

// nextSeq atomically increments and returns the insertion counter of the event collection
func (r *EventRepo) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var c counter
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": r.coll.Name()},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, errors.Wrap(err, "nextSeq: Failed to increment insertion counter")
	}
	return c.Seq, nil
}

// FindAll returns all event documents, the most recently created one first
func (r *EventRepo) FindAll(ctx context.Context) ([]models.Event, error) {
	r.logger.Debug("Loading all events")
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "FindAll: Failed to query events")
	}
	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "FindAll: Failed to decode events")
	}
	ret := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		ret = append(ret, doc.Event)
	}
	return ret, nil
}

// Close disconnects the MongoDB client
func (r *EventRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}
