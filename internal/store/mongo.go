package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	usermodel "github.com/jagcoaching/backend/internal/model/user"
)

const (
	usersCollection     = "users"
	summariesCollection = "session_summaries"

	mongoOpTimeout = 5 * time.Second
)

// MongoStore 基于 MongoDB 的持久化实现。
type MongoStore struct {
	client    *mongo.Client
	users     *mongo.Collection
	summaries *mongo.Collection
}

// ConnectMongo dials MongoDB and verifies the connection with a short
// retry loop, so a server racing its database at startup settles
// instead of dying.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client:    client,
		users:     db.Collection(usersCollection),
		summaries: db.Collection(summariesCollection),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Printf("[store] connected to mongodb database %q", database)
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	idxCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	_, err := s.users.Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = s.summaries.Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create summaries user index: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *usermodel.User) error {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	_, err := s.users.InsertOne(opCtx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var user usermodel.User
	err := s.users.FindOne(opCtx, bson.M{"email": normalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*usermodel.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var user usermodel.User
	err := s.users.FindOne(opCtx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) SaveSummary(ctx context.Context, summary *livemodel.SessionSummary) error {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	// 按 session_id 幂等写入，重复落盘不会产生多条记录。
	_, err := s.summaries.ReplaceOne(opCtx,
		bson.M{"session_id": summary.SessionID},
		summary,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save session summary: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSummary(ctx context.Context, sessionID string) (*livemodel.SessionSummary, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var summary livemodel.SessionSummary
	err := s.summaries.FindOne(opCtx, bson.M{"session_id": sessionID}).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session summary: %w", err)
	}
	return &summary, nil
}

func (s *MongoStore) ListSummariesByUser(ctx context.Context, userID string) ([]*livemodel.SessionSummary, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	cursor, err := s.summaries.Find(opCtx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list session summaries: %w", err)
	}
	defer cursor.Close(opCtx)

	var summaries []*livemodel.SessionSummary
	if err := cursor.All(opCtx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode session summaries: %w", err)
	}
	return summaries, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
