package reports

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/models"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testStore connects to the server in MONGO_TEST_URI and returns a store over
// a throwaway database, skipping the test when no server is configured.
func testStore(t *testing.T) *storage.Mongo {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("educacao_indigena_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return storage.NewMongo(db, nil)
}

type seedMunicipality struct {
	name, uf          string
	total, indigenous int64
}

// seed stores one municipality per entry, each with a single school holding
// its enrollments.
func seed(t *testing.T, store *storage.Mongo, entries []seedMunicipality) {
	t.Helper()
	ctx := context.Background()

	muns := make([]interface{}, len(entries))
	for i, e := range entries {
		muns[i] = models.Municipality{
			Name:            e.name,
			State:           e.uf,
			Region:          "Norte",
			TotalPopulation: e.total,
			IndigenousPop:   e.indigenous,
			Indicators:      models.NewEducationIndicators(nil, nil, nil),
		}
	}
	ids, err := store.ReplaceCollection(ctx, storage.Municipalities, muns)
	require.NoError(t, err)
	require.Len(t, ids, len(entries))

	schools := make([]interface{}, len(entries))
	for i, e := range entries {
		schools[i] = models.School{
			Name:           "Escola " + e.name,
			MunicipalityID: ids[i].(primitive.ObjectID),
			State:          e.uf,
			Region:         "Norte",
			Indigenous:     e.indigenous > 0,
			Classes:        []models.ClassCount{},
			Enrollments: []models.Enrollment{{
				ReferenceYear: 2023,
				OfferedLevels: []string{models.LevelFundamental},
				Total:         e.total,
				Indigenous:    e.indigenous,
			}},
		}
	}
	_, err = store.ReplaceCollection(ctx, storage.Schools, schools)
	require.NoError(t, err)
}

func number(t *testing.T, v interface{}) float64 {
	t.Helper()
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	t.Fatalf("unexpected numeric type %T", v)
	return 0
}

type rankedRow struct {
	name, uf   string
	proportion float64
	rank       float64
}

func TestProportionRanking_AgainstStore(t *testing.T) {
	store := testStore(t)
	seed(t, store, []seedMunicipality{
		{"Alfa", "AM", 100, 50},
		{"Beta", "AM", 100, 30},
		{"Gama", "AM", 100, 90},
		{"Delta", "PA", 10, 5},
		{"Epsilon", "PA", 20, 10},
		{"Zeta", "PA", 10, 2},
		{"Eta", "PA", 10, 1},
	})

	res, err := NewRunner(store, false, nil).Run(context.Background(), "ranking-proporcao")
	require.NoError(t, err)

	var got []rankedRow
	for _, row := range res.Rows {
		m := row.Map()
		got = append(got, rankedRow{
			name:       m["Município"].(string),
			uf:         m["UF"].(string),
			proportion: number(t, m["Proporção de Alunos Indígenas"]),
			rank:       number(t, m["Ranking no Estado"]),
		})
	}
	require.Len(t, got, 6)

	// highest share ranks first within the state
	assert.Equal(t, rankedRow{"Gama", "AM", 0.9, 1}, got[0])
	assert.Equal(t, rankedRow{"Alfa", "AM", 0.5, 2}, got[1])
	assert.Equal(t, rankedRow{"Beta", "AM", 0.3, 3}, got[2])

	// ties share a rank and leave a gap, which pushes Eta out of the top 3
	assert.ElementsMatch(t, []string{"Delta", "Epsilon"}, []string{got[3].name, got[4].name})
	assert.Equal(t, 1.0, got[3].rank)
	assert.Equal(t, 1.0, got[4].rank)
	assert.Equal(t, rankedRow{"Zeta", "PA", 0.2, 3}, got[5])
}

func TestProportionRanking_ZeroEnrollment(t *testing.T) {
	store := testStore(t)
	seed(t, store, []seedMunicipality{
		{"Teta", "RR", 0, 0},
	})

	res, err := NewRunner(store, false, nil).Run(context.Background(), "ranking-proporcao")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	m := res.Rows[0].Map()
	assert.Equal(t, "Teta", m["Município"])
	assert.Equal(t, 0.0, number(t, m["Proporção de Alunos Indígenas"]))
	assert.Equal(t, 1.0, number(t, m["Ranking no Estado"]))
}

func TestRunAll_AgainstStore(t *testing.T) {
	store := testStore(t)
	seed(t, store, []seedMunicipality{
		{"Alfa", "AM", 100, 50},
		{"Teta", "RR", 0, 0},
	})

	results, err := NewRunner(store, true, nil).RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(All()))
	for i, rep := range All() {
		assert.Equal(t, rep.ID, results[i].Report.ID)
	}

	// Teta has no population, so its share goes through the zero guard
	buckets := results[3].Rows
	require.NotEmpty(t, buckets)
	var municipalities float64
	for _, row := range buckets {
		municipalities += number(t, row.Map()["total_municipios_na_faixa"])
	}
	assert.Equal(t, 2.0, municipalities)
}
