package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/parleylab/parley/internal/core"
)

const mongoCollection = "negotiations"

// Mongo stores results in MongoDB. The result's own ID is used as the
// document _id so lookups behave the same as the other backends.
type Mongo struct {
	uri      string
	database string
	client   *mongo.Client
}

// NewMongo creates a MongoDB store for the given connection string.
func NewMongo(uri, database string) *Mongo {
	return &Mongo{uri: uri, database: database}
}

func (m *Mongo) Initialize(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().
		ApplyURI(m.uri).
		SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	m.client = client
	return nil
}

func (m *Mongo) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) collection() *mongo.Collection {
	return m.client.Database(m.database).Collection(mongoCollection)
}

func (m *Mongo) SaveNegotiation(ctx context.Context, result *core.Result) error {
	if result.ID == "" {
		return fmt.Errorf("result has no ID")
	}
	_, err := m.collection().ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: result.ID}},
		result,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save negotiation: %w", err)
	}
	return nil
}

func (m *Mongo) GetNegotiation(ctx context.Context, id string) (*core.Result, error) {
	var result core.Result
	err := m.collection().FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("negotiation not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get negotiation: %w", err)
	}
	return &result, nil
}

func (m *Mongo) ListNegotiations(ctx context.Context, filter Filter, limit int) ([]*core.Result, error) {
	query := bson.D{}
	if filter.Scenario != "" {
		query = append(query, bson.E{Key: "scenario", Value: filter.Scenario})
	}
	if filter.PersonaA != "" {
		query = append(query, bson.E{Key: "persona_a", Value: filter.PersonaA})
	}
	if filter.PersonaB != "" {
		query = append(query, bson.E{Key: "persona_b", Value: filter.PersonaB})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*core.Result
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode negotiations: %w", err)
	}
	return results, nil
}

func (m *Mongo) Statistics(ctx context.Context) (*Statistics, error) {
	coll := m.collection()

	total, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to count negotiations: %w", err)
	}
	stats := &Statistics{TotalNegotiations: int(total)}
	if total == 0 {
		return stats, nil
	}

	agreed, err := coll.CountDocuments(ctx, bson.D{{Key: "agreement_reached", Value: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to count agreements: %w", err)
	}
	stats.AgreementsReached = int(agreed)
	stats.AgreementRate = float64(agreed) / float64(total)

	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_rounds", Value: bson.D{{Key: "$avg", Value: "$rounds_used"}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rounds: %w", err)
	}
	defer cursor.Close(ctx)

	var agg []struct {
		AvgRounds float64 `bson:"avg_rounds"`
	}
	if err := cursor.All(ctx, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation: %w", err)
	}
	if len(agg) > 0 {
		stats.AvgRoundsUsed = agg[0].AvgRounds
	}
	return stats, nil
}
