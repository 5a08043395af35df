package repository

import (
	"context"
	"speakexam/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TranscriptRepo archives finished test transcripts in MongoDB
type TranscriptRepo interface {
	Save(ctx context.Context, record *model.TranscriptRecord) error
	Get(ctx context.Context, sessionID string, run int) (*model.TranscriptRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.TranscriptRecord, error)
}

type transcriptRepo struct {
	collection *mongo.Collection
}

// NewTranscriptRepo creates a new transcript repository
func NewTranscriptRepo(db *mongo.Database) TranscriptRepo {
	return &transcriptRepo{
		collection: db.Collection("transcripts"),
	}
}

// Save upserts by (sessionId, run) so a rescored run overwrites its archive
func (r *transcriptRepo) Save(ctx context.Context, record *model.TranscriptRecord) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"sessionId": record.SessionID, "run": record.Run}
	_, err := r.collection.ReplaceOne(ctx, filter, record, opts)
	return err
}

func (r *transcriptRepo) Get(ctx context.Context, sessionID string, run int) (*model.TranscriptRecord, error) {
	var record model.TranscriptRecord
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID, "run": run}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBySession returns every archived run of a session, oldest first
func (r *transcriptRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.TranscriptRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "run", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.TranscriptRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
