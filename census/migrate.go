package census

import (
	"context"
	"log/slog"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/indicators"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/storage"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/utils"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrIDMismatch means the store returned a different number of ids than the
// municipality documents sent, so codes cannot be tied to documents.
var ErrIDMismatch = errors.New("census: inserted id count does not match municipality count")

// Store is what the migrator needs from the document store.
type Store interface {
	ReplaceCollection(ctx context.Context, name string, docs []interface{}) ([]interface{}, error)
	CountDocuments(ctx context.Context, name string, filter interface{}) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// Options locate the input files.
type Options struct {
	CensusFile string
	Indicators indicators.Files
	SkipRows   int
	// Parallel decodes the indicator tables concurrently.
	Parallel bool
}

// Summary reports the counts of a migration run.
type Summary struct {
	CensusRows        int
	SkippedRows       int
	IndicatorRecords  int
	Municipalities    int
	WithInstruction   int
	InstructionRate   float64
	Schools           int
	UnmappedSchools   int
	Territories       int
	StoredInstruction int64
}

type Migrator struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

func NewMigrator(store Store, opts Options, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{store: store, opts: opts, logger: logger}
}

// Run reads every input, then replaces the three collections. Every input
// is read before the first write, so a missing file leaves the store as it was.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	var sum Summary

	input, err := ReadFile(m.opts.CensusFile)
	if err != nil {
		return nil, err
	}
	sum.CensusRows = len(input.Rows)
	sum.SkippedRows = input.Skipped
	if input.Skipped > 0 {
		m.logger.Warn("Census rows without a municipality code were skipped", "rows", input.Skipped)
	}
	m.logger.Info("Read census file", "path", m.opts.CensusFile, "rows", sum.CensusRows)

	set, indStats, err := indicators.Load(ctx, m.opts.Indicators, m.opts.SkipRows, m.opts.Parallel, m.logger)
	if err != nil {
		return nil, errors.Wrap(err, "load indicators")
	}
	sum.IndicatorRecords = indStats.Records

	codeToID, err := m.migrateMunicipalities(ctx, input.Rows, set, &sum)
	if err != nil {
		return nil, err
	}
	if err := m.migrateSchools(ctx, input.Rows, codeToID, &sum); err != nil {
		return nil, err
	}
	if err := m.migrateTerritories(ctx, input.Rows, &sum); err != nil {
		return nil, err
	}

	if err := m.store.EnsureIndexes(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure indexes")
	}

	sum.StoredInstruction, err = m.store.CountDocuments(ctx, storage.Municipalities, bson.D{
		{Key: "indicadores_educacionais.nivel_instrucao", Value: bson.D{{Key: "$ne", Value: bson.A{}}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "verify instruction data")
	}
	m.logger.Info("Municipalities stored with instruction data", "count", sum.StoredInstruction)

	return &sum, nil
}

func (m *Migrator) migrateMunicipalities(ctx context.Context, rows []Row, set *indicators.Set, sum *Summary) (map[int64]primitive.ObjectID, error) {
	groups := GroupMunicipalities(rows)
	docs, matched := BuildMunicipalities(groups, set)
	sum.WithInstruction = matched
	sum.InstructionRate = utils.Ratio(float64(matched), float64(len(docs)))
	m.logger.Info("Matched municipalities with instruction data",
		"matched", matched, "total", len(docs), "rate", sum.InstructionRate)

	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	ids, err := m.store.ReplaceCollection(ctx, storage.Municipalities, batch)
	if err != nil {
		return nil, errors.Wrap(err, "migrate municipalities")
	}
	if len(ids) != len(groups) {
		return nil, errors.Wrapf(ErrIDMismatch, "%d ids for %d municipalities", len(ids), len(groups))
	}

	codeToID := make(map[int64]primitive.ObjectID, len(groups))
	for i, g := range groups {
		oid, ok := ids[i].(primitive.ObjectID)
		if !ok {
			return nil, errors.Errorf("municipality %d: unexpected id type %T", g.Code, ids[i])
		}
		codeToID[g.Code] = oid
	}
	sum.Municipalities = len(codeToID)
	m.logger.Info("Migrated municipalities", "count", sum.Municipalities)
	return codeToID, nil
}

func (m *Migrator) migrateSchools(ctx context.Context, rows []Row, codeToID map[int64]primitive.ObjectID, sum *Summary) error {
	docs, st := BuildSchools(rows, codeToID)
	sum.UnmappedSchools = st.Unmapped
	if st.Unmapped > 0 {
		m.logger.Warn("Schools left out: municipality was not migrated",
			"schools", st.Unmapped, "municipality_codes", st.UnmappedCodes)
	}

	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	if _, err := m.store.ReplaceCollection(ctx, storage.Schools, batch); err != nil {
		return errors.Wrap(err, "migrate schools")
	}
	sum.Schools = len(docs)
	m.logger.Info("Migrated schools", "count", sum.Schools, "unique_in_census", st.Unique)
	return nil
}

func (m *Migrator) migrateTerritories(ctx context.Context, rows []Row, sum *Summary) error {
	docs := BuildTerritories(rows)
	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	if _, err := m.store.ReplaceCollection(ctx, storage.Territories, batch); err != nil {
		return errors.Wrap(err, "migrate indigenous territories")
	}
	sum.Territories = len(docs)
	m.logger.Info("Migrated indigenous territories", "count", sum.Territories)
	return nil
}
