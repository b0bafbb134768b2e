package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConnector implements Connector over the official MongoDB driver.
// The client is dialed on first use, never at construction.
type MongoConnector struct {
	uri      string
	database string

	mu     sync.Mutex
	client *mongo.Client
}

// NewMongoConnector creates a lazy connector for one database.
func NewMongoConnector(uri, database string) *MongoConnector {
	return &MongoConnector{uri: uri, database: database}
}

func (c *MongoConnector) db(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		c.client = client
	}
	return c.client.Database(c.database), nil
}

// ListTargets lists collection names.
func (c *MongoConnector) ListTargets(ctx context.Context) ([]Target, error) {
	db, err := c.db(ctx)
	if err != nil {
		return nil, err
	}

	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collection names: %w", err)
	}

	targets := make([]Target, 0, len(names))
	for _, name := range names {
		targets = append(targets, Target{Name: name, Detail: "collection"})
	}
	return targets, nil
}

// Describe returns one representative document in extended JSON.
func (c *MongoConnector) Describe(ctx context.Context, target string) (string, error) {
	db, err := c.db(ctx)
	if err != nil {
		return "", err
	}

	var doc bson.M
	err = db.Collection(target).FindOne(ctx, bson.D{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return fmt.Sprintf("collection %s is empty", target), nil
	}
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", target, err)
	}

	out, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(out), nil
}

// Sample returns up to limit documents in extended JSON.
func (c *MongoConnector) Sample(ctx context.Context, target string, limit int) (string, error) {
	db, err := c.db(ctx)
	if err != nil {
		return "", err
	}
	if limit <= 0 {
		limit = 5
	}

	cursor, err := db.Collection(target).Find(ctx, bson.D{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return "", fmt.Errorf("sample %s: %w", target, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return "", fmt.Errorf("read sample from %s: %w", target, err)
	}
	if len(docs) == 0 {
		return fmt.Sprintf("collection %s is empty", target), nil
	}

	var b strings.Builder
	for _, doc := range docs {
		out, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode document: %w", err)
		}
		b.Write(out)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Query runs a database command given as an extended-JSON document, e.g.
// {"aggregate": "orders", "pipeline": [...], "cursor": {}}.
func (c *MongoConnector) Query(ctx context.Context, query string) (string, error) {
	db, err := c.db(ctx)
	if err != nil {
		return "", err
	}

	var command bson.D
	if err := bson.UnmarshalExtJSON([]byte(query), false, &command); err != nil {
		return "", fmt.Errorf("parse command document: %w", err)
	}

	raw, err := db.RunCommand(ctx, command).Raw()
	if err != nil {
		return "", fmt.Errorf("run command: %w", err)
	}

	out, err := bson.MarshalExtJSONIndent(raw, false, false, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode command result: %w", err)
	}
	return string(out), nil
}

// Close disconnects the client if it was ever dialed.
func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
