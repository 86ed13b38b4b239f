package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/repository"
)

const (
	lotsCollection      = "lots"
	weighingsCollection = "weighing_records"
	dietsCollection     = "diet_records"
	inventoryCollection = "inventory_items"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store with one collection per entity.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// NewMongoDBRepository connects to MongoDB and prepares the indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		now:    time.Now,
	}

	_, err = r.db.Collection(weighingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lot_id", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weighing index: %w", err)
	}

	return r, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func newID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.NewString()
}

func (r *MongoDBRepository) insert(ctx context.Context, coll, kind, id string, doc interface{}) error {
	if _, err := r.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflict(kind, id)
		}
		return fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	return nil
}

func (r *MongoDBRepository) findByID(ctx context.Context, coll, kind, id string, out interface{}) error {
	err := r.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}
	return nil
}

func (r *MongoDBRepository) replace(ctx context.Context, coll, kind, id string, doc interface{}) error {
	res, err := r.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFound(kind, id)
	}
	return nil
}

func (r *MongoDBRepository) deleteByID(ctx context.Context, coll, kind, id string) error {
	res, err := r.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFound(kind, id)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// CreateLot validates and inserts a lot.
func (r *MongoDBRepository) CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error) {
	if err := lot.Validate(); err != nil {
		return models.Lot{}, err
	}
	lot.ID = newID(lot.ID)
	lot.CreatedAt = r.timestamp()
	lot.UpdatedAt = lot.CreatedAt
	if err := r.insert(ctx, lotsCollection, models.KindLot, lot.ID, lot); err != nil {
		return models.Lot{}, err
	}
	return lot, nil
}

// GetLot loads a lot by id.
func (r *MongoDBRepository) GetLot(ctx context.Context, id string) (models.Lot, error) {
	var lot models.Lot
	if err := r.findByID(ctx, lotsCollection, models.KindLot, id, &lot); err != nil {
		return models.Lot{}, err
	}
	return lot, nil
}

// ListLots returns every lot ordered by creation time.
func (r *MongoDBRepository) ListLots(ctx context.Context) ([]models.Lot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.Lot](ctx, r.db.Collection(lotsCollection), bson.M{}, opts)
}

// UpdateLot applies a partial update to a lot.
func (r *MongoDBRepository) UpdateLot(ctx context.Context, id string, patch models.LotPatch) (models.Lot, error) {
	lot, err := r.GetLot(ctx, id)
	if err != nil {
		return models.Lot{}, err
	}
	updated, err := patch.Apply(lot)
	if err != nil {
		return models.Lot{}, err
	}
	updated.UpdatedAt = r.timestamp()
	if err := r.replace(ctx, lotsCollection, models.KindLot, id, updated); err != nil {
		return models.Lot{}, err
	}
	return updated, nil
}

// DeleteLot removes a lot. Its weighing history is kept.
func (r *MongoDBRepository) DeleteLot(ctx context.Context, id string) error {
	return r.deleteByID(ctx, lotsCollection, models.KindLot, id)
}

func (r *MongoDBRepository) prepareWeighing(record models.WeighingRecord) models.WeighingRecord {
	record.ID = newID(record.ID)
	record.CreatedAt = r.timestamp()
	if record.Date.IsZero() {
		record.Date = record.CreatedAt
	}
	record.Date = record.Date.UTC().Truncate(time.Millisecond)
	if len(record.Breeds) == 0 {
		record.Breeds = nil
	}
	return record
}

// AddWeighingRecord appends a weighing record without touching any lot.
func (r *MongoDBRepository) AddWeighingRecord(ctx context.Context, record models.WeighingRecord) (models.WeighingRecord, error) {
	record = r.prepareWeighing(record)
	if err := r.insert(ctx, weighingsCollection, models.KindWeighing, record.ID, record); err != nil {
		return models.WeighingRecord{}, err
	}
	return record, nil
}

// ListWeighingRecords returns the weighing history of a lot, oldest first.
// An empty lotID lists every record.
func (r *MongoDBRepository) ListWeighingRecords(ctx context.Context, lotID string) ([]models.WeighingRecord, error) {
	filter := bson.M{}
	if lotID != "" {
		filter["lot_id"] = lotID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findAll[models.WeighingRecord](ctx, r.db.Collection(weighingsCollection), filter, opts)
}

// ApplyWeighing stores the record and applies the lot updates in one transaction.
func (r *MongoDBRepository) ApplyWeighing(ctx context.Context, record models.WeighingRecord, updates []models.LotUpdate) (models.WeighingRecord, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return models.WeighingRecord{}, fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	record = r.prepareWeighing(record)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.GetLot(sc, record.LotID); err != nil {
			return nil, err
		}
		now := r.timestamp()
		for _, u := range updates {
			lot, err := r.GetLot(sc, u.LotID)
			if err != nil {
				return nil, err
			}
			lot = u.Apply(lot)
			lot.UpdatedAt = now
			if err := r.replace(sc, lotsCollection, models.KindLot, lot.ID, lot); err != nil {
				return nil, err
			}
		}
		if err := r.insert(sc, weighingsCollection, models.KindWeighing, record.ID, record); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return models.WeighingRecord{}, err
	}
	return record, nil
}

// AddDietRecord inserts a diet plan.
func (r *MongoDBRepository) AddDietRecord(ctx context.Context, record models.DietRecord) (models.DietRecord, error) {
	record.ID = newID(record.ID)
	record.CreatedAt = r.timestamp()
	record.UpdatedAt = record.CreatedAt
	if err := r.insert(ctx, dietsCollection, models.KindDiet, record.ID, record); err != nil {
		return models.DietRecord{}, err
	}
	return record, nil
}

// GetDietRecord loads a diet plan by id.
func (r *MongoDBRepository) GetDietRecord(ctx context.Context, id string) (models.DietRecord, error) {
	var d models.DietRecord
	if err := r.findByID(ctx, dietsCollection, models.KindDiet, id, &d); err != nil {
		return models.DietRecord{}, err
	}
	return d, nil
}

// ListDietRecords returns every diet plan ordered by creation time.
func (r *MongoDBRepository) ListDietRecords(ctx context.Context) ([]models.DietRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.DietRecord](ctx, r.db.Collection(dietsCollection), bson.M{}, opts)
}

// UpdateDietRecord applies a partial update to a diet plan.
func (r *MongoDBRepository) UpdateDietRecord(ctx context.Context, id string, patch models.DietPatch) (models.DietRecord, error) {
	d, err := r.GetDietRecord(ctx, id)
	if err != nil {
		return models.DietRecord{}, err
	}
	d = patch.Apply(d)
	d.UpdatedAt = r.timestamp()
	if err := r.replace(ctx, dietsCollection, models.KindDiet, id, d); err != nil {
		return models.DietRecord{}, err
	}
	return d, nil
}

// DeleteDietRecord removes a diet plan.
func (r *MongoDBRepository) DeleteDietRecord(ctx context.Context, id string) error {
	return r.deleteByID(ctx, dietsCollection, models.KindDiet, id)
}

// CreateInventoryItem validates and inserts an item.
func (r *MongoDBRepository) CreateInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return models.InventoryItem{}, err
	}
	item.ID = newID(item.ID)
	item.CreatedAt = r.timestamp()
	item.UpdatedAt = item.CreatedAt
	if err := r.insert(ctx, inventoryCollection, models.KindInventoryItem, item.ID, item); err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// GetInventoryItem loads an item by id.
func (r *MongoDBRepository) GetInventoryItem(ctx context.Context, id string) (models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.findByID(ctx, inventoryCollection, models.KindInventoryItem, id, &item); err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// ListInventoryItems returns every item sorted by name.
func (r *MongoDBRepository) ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.InventoryItem](ctx, r.db.Collection(inventoryCollection), bson.M{}, opts)
}

// UpdateInventoryItem applies a partial update to an item.
func (r *MongoDBRepository) UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryPatch) (models.InventoryItem, error) {
	item, err := r.GetInventoryItem(ctx, id)
	if err != nil {
		return models.InventoryItem{}, err
	}
	item = patch.Apply(item)
	item.UpdatedAt = r.timestamp()
	if err := r.replace(ctx, inventoryCollection, models.KindInventoryItem, id, item); err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}
