package repository

import (
	"context"
	"speakexam/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepo handles MongoDB operations for score reports
type ReportRepo interface {
	Save(ctx context.Context, report *model.ScoreReport) error
	Get(ctx context.Context, sessionID string, run int) (*model.ScoreReport, error)
	Latest(ctx context.Context, sessionID string) (*model.ScoreReport, error)
}

type reportRepo struct {
	reports *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		reports: db.Collection("score_reports"),
	}
}

func (r *reportRepo) Save(ctx context.Context, report *model.ScoreReport) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"sessionId": report.SessionID, "run": report.Run}
	_, err := r.reports.ReplaceOne(ctx, filter, report, opts)
	return err
}

func (r *reportRepo) Get(ctx context.Context, sessionID string, run int) (*model.ScoreReport, error) {
	return r.findOne(ctx, bson.M{"sessionId": sessionID, "run": run}, nil)
}

// Latest returns the report of the most recent scored run
func (r *reportRepo) Latest(ctx context.Context, sessionID string) (*model.ScoreReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "run", Value: -1}})
	return r.findOne(ctx, bson.M{"sessionId": sessionID}, opts)
}

func (r *reportRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*model.ScoreReport, error) {
	var report model.ScoreReport
	var err error
	if opts != nil {
		err = r.reports.FindOne(ctx, filter, opts).Decode(&report)
	} else {
		err = r.reports.FindOne(ctx, filter).Decode(&report)
	}
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
