package feedbackRepo

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

// MongoFeedbackRepo implements FeedbackRepository using MongoDB.
type MongoFeedbackRepo struct {
	coll *mongo.Collection
}

// NewMongoFeedbackRepo creates a new instance of FeedbackRepository using MongoDB.
func NewMongoFeedbackRepo() FeedbackRepository {
	coll := database.MongoClient.Database("coachly").Collection("feedbacks")
	repo := &MongoFeedbackRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoFeedbackRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create feedback indexes: %w", err)
	}
	return nil
}

// Create stores feedback for a booking. The unique index on booking_id
// enforces at most one entry per booking.
func (r *MongoFeedbackRepo) Create(feedback *models.Feedback) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}

	if _, err := r.coll.InsertOne(ctx, feedback); err != nil {
		return fmt.Errorf("failed to create feedback for booking %s: %w", feedback.BookingID, err)
	}
	return nil
}

// GetByBooking retrieves feedback for a booking, nil when absent.
func (r *MongoFeedbackRepo) GetByBooking(bookingID string) (*models.Feedback, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var feedback models.Feedback
	err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&feedback)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feedback for booking %s: %w", bookingID, err)
	}
	return &feedback, nil
}
