// Package mongostore keeps properties and reports in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
)

var _ inspection.DocumentStore = (*Store)(nil)

// Collection names.
const (
	PropertiesCollection = "properties"
	ReportsCollection    = "reports"
)

// Store implements inspection.DocumentStore. Completing an inspection
// needs a replica set, since it runs in a transaction.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) properties() *mongo.Collection { return s.db.Collection(PropertiesCollection) }
func (s *Store) reports() *mongo.Collection    { return s.db.Collection(ReportsCollection) }

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.properties().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assign_to", Value: 1}}},
		{Keys: bson.D{{Key: "last_date_of_inspection", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating property indexes: %w", err)
	}
	_, err = s.reports().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assign_to", Value: 1}, {Key: "last_date_of_inspection", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating report indexes: %w", err)
	}
	return nil
}

func (s *Store) CreateProperty(ctx context.Context, p *model.Property) error {
	if _, err := s.properties().InsertOne(ctx, p); err != nil {
		return fmt.Errorf("creating property: %w", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	err := s.properties().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting property: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProperties(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	cur, err := s.properties().Find(ctx, propertyQuery(filter),
		options.Find().SetSort(bson.D{{Key: "update_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	properties := []model.Property{}
	if err := cur.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return properties, nil
}

func propertyQuery(filter model.PropertyFilter) bson.M {
	q := bson.M{}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.AssignedTo != 0 {
		q["assign_to"] = filter.AssignedTo
	}
	if r := dateRange(filter.From, filter.To); r != nil {
		q["last_date_of_inspection"] = r
	}
	if filter.Query != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Query), "$options": "i"}
		q["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"address": pattern}}
	}
	return q
}

func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lt"] = *to
	}
	return r
}

func (s *Store) UpdateInspection(ctx context.Context, p *model.Property) error {
	res, err := s.properties().UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"categories": p.Categories,
		"progress":   p.Progress,
		"status":     p.Status,
		"update_at":  p.UpdateAt,
	}})
	if err != nil {
		return fmt.Errorf("updating inspection: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating inspection: property %q does not exist", p.ID)
	}
	return nil
}

// CompleteInspection replaces the property and inserts the report inside
// one transaction. A failed attempt is aborted and returned as is; the
// caller decides whether to try again.
func (s *Store) CompleteInspection(ctx context.Context, p *model.Property, r *model.Report) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	sc := mongo.NewSessionContext(ctx, sess)

	if err := s.completeInTx(sc, p, r); err != nil {
		if abortErr := sess.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			return errors.Join(err, fmt.Errorf("aborting transaction: %w", abortErr))
		}
		return err
	}
	if err := sess.CommitTransaction(sc); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) completeInTx(sc mongo.SessionContext, p *model.Property, r *model.Report) error {
	res, err := s.properties().ReplaceOne(sc, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("completing property: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("completing property: property %q does not exist", p.ID)
	}
	if _, err := s.reports().InsertOne(sc, r); err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if _, err := s.properties().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var r model.Report
	err := s.reports().FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return &r, nil
}

// ListReports returns signed, non-deleted reports, newest first.
func (s *Store) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	q := bson.M{
		"deleted_at": nil,
		"signature":  bson.M{"$ne": nil},
	}
	if filter.AssignedTo != 0 {
		q["assign_to"] = filter.AssignedTo
	}
	if r := dateRange(filter.From, filter.To); r != nil {
		q["last_date_of_inspection"] = r
	}

	cur, err := s.reports().Find(ctx, q,
		options.Find().SetSort(bson.D{{Key: "last_date_of_inspection", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	reports := []model.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}
	return reports, nil
}

func (s *Store) SignReport(ctx context.Context, id string, sig model.Signature) (bool, error) {
	res, err := s.reports().UpdateOne(ctx,
		bson.M{"_id": id, "signature": nil, "deleted_at": nil},
		bson.M{"$set": bson.M{
			"signature": sig,
			"status":    model.PropertyStatusCompleted,
			"update_at": sig.Timestamp,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("signing report: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	_, err := s.reports().UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}
