// Package storage wraps the MongoDB database holding the three collections.
package storage

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	Municipalities = "Municipios"
	Schools        = "Escolas"
	Territories    = "TerritoriosIndigenas"
)

// Mongo is the document store used by the migrator and the reports.
type Mongo struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewMongo(db *mongo.Database, logger *slog.Logger) *Mongo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mongo{db: db, logger: logger}
}

// ReplaceCollection drops the collection and inserts docs in order. The
// returned ids are positionally aligned with docs.
func (m *Mongo) ReplaceCollection(ctx context.Context, name string, docs []interface{}) ([]interface{}, error) {
	coll := m.db.Collection(name)
	if err := coll.Drop(ctx); err != nil {
		return nil, errors.Wrapf(err, "drop %s", name)
	}
	m.logger.Debug("Dropped collection", "collection", name)

	if len(docs) == 0 {
		return []interface{}{}, nil
	}

	res, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return nil, errors.Wrapf(err, "insert into %s", name)
	}
	m.logger.Debug("Inserted documents", "collection", name, "count", len(res.InsertedIDs))
	return res.InsertedIDs, nil
}

func (m *Mongo) CountDocuments(ctx context.Context, name string, filter interface{}) (int64, error) {
	n, err := m.db.Collection(name).CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", name)
	}
	return n, nil
}

// Aggregate runs a pipeline and decodes every result as an ordered document,
// so projected labels keep the order the pipeline gave them.
func (m *Mongo) Aggregate(ctx context.Context, name string, pipeline mongo.Pipeline) ([]bson.D, error) {
	cursor, err := m.db.Collection(name).Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, errors.Wrapf(err, "aggregate %s", name)
	}
	defer cursor.Close(ctx)

	results := []bson.D{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrapf(err, "decode %s results", name)
	}
	return results, nil
}

// EnsureIndexes creates the indexes the reports filter, group and join on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		Schools: {
			{
				Keys:    bson.D{{Key: "municipio_id", Value: 1}},
				Options: options.Index().SetName("municipio_id_idx"),
			},
			{
				Keys:    bson.D{{Key: "indigena", Value: 1}},
				Options: options.Index().SetName("indigena_idx"),
			},
			{
				Keys:    bson.D{{Key: "regiao_nome", Value: 1}},
				Options: options.Index().SetName("regiao_nome_idx"),
			},
		},
		Municipalities: {
			{
				Keys:    bson.D{{Key: "uf_sigla", Value: 1}},
				Options: options.Index().SetName("uf_sigla_idx"),
			},
		},
	}

	for _, name := range []string{Schools, Municipalities} {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return errors.Wrapf(err, "create %s indexes", name)
		}
		m.logger.Debug("Created indexes", "collection", name, "count", len(indexes[name]))
	}
	return nil
}
