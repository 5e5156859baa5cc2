package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/ratiba/core/timetable"
)

// the weekly template is a single versioned document
const timetableDocID = "weekly"

type timetableDoc struct {
	ID      string            `bson:"_id"`
	Version int64             `bson:"version"`
	Entries []timetable.Entry `bson:"entries"`
}

type timetableRepository struct {
	coll *mongo.Collection
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{coll: db.db.Collection(timetableCollection)}
}

func (repo *timetableRepository) GetAll(ctx context.Context) ([]timetable.Entry, int64, error) {
	var doc timetableDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": timetableDocID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, nil
		}
		return nil, 0, errors.Wrap(err, "finding timetable")
	}
	for i := range doc.Entries {
		e := &doc.Entries[i]
		e.CreatedAt = e.CreatedAt.UTC()
		if e.CancelledAt != nil {
			t := e.CancelledAt.UTC()
			e.CancelledAt = &t
		}
	}
	return doc.Entries, doc.Version, nil
}

func (repo *timetableRepository) SaveAll(ctx context.Context, entries []timetable.Entry, version int64) error {
	if entries == nil {
		entries = []timetable.Entry{}
	}

	if version == 0 {
		_, err := repo.coll.InsertOne(ctx, timetableDoc{ID: timetableDocID, Version: 1, Entries: entries})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return timetable.ErrStaleVersion
			}
			return errors.Wrap(err, "inserting timetable")
		}
		return nil
	}

	res, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": timetableDocID, "version": version},
		bson.M{
			"$set": bson.M{"entries": entries},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return errors.Wrap(err, "updating timetable")
	}
	if res.MatchedCount == 0 {
		return timetable.ErrStaleVersion
	}
	return nil
}
