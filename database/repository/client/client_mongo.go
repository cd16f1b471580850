package clientRepo

import (
	"context"
	"fmt"
	"time"

	"coachly/database"
	"coachly/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClientRepo implements ClientRepository using MongoDB.
type MongoClientRepo struct {
	coll  *mongo.Collection
	notes *mongo.Collection
}

// NewMongoClientRepo creates a new instance of ClientRepository using MongoDB.
func NewMongoClientRepo() ClientRepository {
	db := database.MongoClient.Database("coachly")
	repo := &MongoClientRepo{
		coll:  db.Collection("clients"),
		notes: db.Collection("client_notes"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoClientRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create client indexes: %w", err)
	}

	noteIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.notes.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create note indexes: %w", err)
	}
	return nil
}

// GetOrCreateByRequester fetches the client record for a requester, creating
// it on first contact.
func (r *MongoClientRepo) GetOrCreateByRequester(requesterID, requesterName string) (*models.Client, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var client models.Client
	err := r.coll.FindOne(ctx, bson.M{"requester_id": requesterID}).Decode(&client)
	if err == nil {
		return &client, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to fetch client for requester %s: %w", requesterID, err)
	}

	client = models.Client{
		ID:            uuid.New().String(),
		RequesterID:   requesterID,
		RequesterName: requesterName,
		CreatedAt:     time.Now(),
	}
	if _, err := r.coll.InsertOne(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client for requester %s: %w", requesterID, err)
	}
	return &client, nil
}

// GetByID retrieves a client by its unique ID, nil when absent.
func (r *MongoClientRepo) GetByID(id string) (*models.Client, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var client models.Client
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&client)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client %s: %w", id, err)
	}
	return &client, nil
}

// IncrementSessions bumps the completed-session counter.
func (r *MongoClientRepo) IncrementSessions(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"total_sessions": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment sessions for client %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("client with id %s not found", id)
	}
	return nil
}

// AddNote attaches a coach note to a client.
func (r *MongoClientRepo) AddNote(note *models.Note) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	if _, err := r.notes.InsertOne(ctx, note); err != nil {
		return fmt.Errorf("failed to add note for client %s: %w", note.ClientID, err)
	}
	return nil
}

// GetNotes lists a client's notes, newest first.
func (r *MongoClientRepo) GetNotes(clientID string) ([]models.Note, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.notes.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var notes []models.Note
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}
