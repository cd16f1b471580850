package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"coachly/database"
	"coachly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	coll := database.MongoClient.Database("coachly").Collection("bookings")
	repo := &MongoBookingRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "calendar_event_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "slot.start", Value: 1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new booking document.
func (r *MongoBookingRepo) Create(booking *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its unique ID.
func (r *MongoBookingRepo) GetByID(id string) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// UpdateStatus moves a booking to the given status.
func (r *MongoBookingRepo) UpdateStatus(id string, status string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking with id %s not found", id)
	}
	return nil
}

// FindBySlot looks up a non-cancelled booking occupying the given slot.
// Diagnostic only: availability decisions always go through the calendar.
func (r *MongoBookingRepo) FindBySlot(slot models.Slot) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"slot.start": slot.Start,
		"status":     bson.M{"$nin": bson.A{models.BookingStatusCancelled, models.BookingStatusFailed}},
	}
	var booking models.Booking
	err := r.coll.FindOne(ctx, filter).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by slot: %w", err)
	}
	return &booking, nil
}

// ListUpcoming returns confirmed bookings starting after the given instant.
func (r *MongoBookingRepo) ListUpcoming(after time.Time) ([]models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.BookingStatusConfirmed,
		"slot.start": bson.M{"$gt": after},
	}
	opts := options.Find().SetSort(bson.D{{Key: "slot.start", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// ListEndedBefore returns confirmed bookings whose slot ended before cutoff.
func (r *MongoBookingRepo) ListEndedBefore(cutoff time.Time) ([]models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":   models.BookingStatusConfirmed,
		"slot.end": bson.M{"$lt": cutoff},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// Stats aggregates booking counts by status and session type.
func (r *MongoBookingRepo) Stats() (*models.BookingStats, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	stats := &models.BookingStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	stats.Total = total

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate statuses: %w", err)
	}
	var byStatus []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &byStatus); err != nil {
		return nil, fmt.Errorf("failed to decode status aggregation: %w", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[row.ID] = row.Count
	}

	pipeline = mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$session_type", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err = r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate session types: %w", err)
	}
	var byType []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &byType); err != nil {
		return nil, fmt.Errorf("failed to decode type aggregation: %w", err)
	}
	for _, row := range byType {
		stats.ByType[row.ID] = row.Count
	}

	clients, err := r.coll.Distinct(ctx, "requester_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count distinct clients: %w", err)
	}
	stats.ClientsSeen = int64(len(clients))

	return stats, nil
}
