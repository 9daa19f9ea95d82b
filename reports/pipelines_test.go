package reports

import (
	"testing"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// stageValue returns the value of the first stage using op.
func stageValue(t *testing.T, rep Report, op string) interface{} {
	t.Helper()
	for _, st := range rep.Pipeline {
		if len(st) == 1 && st[0].Key == op {
			return st[0].Value
		}
	}
	t.Fatalf("report %s has no %s stage", rep.ID, op)
	return nil
}

func lookup(d bson.D, key string) interface{} {
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func keys(d bson.D) []string {
	out := make([]string, 0, len(d))
	for _, e := range d {
		out = append(out, e.Key)
	}
	return out
}

func TestAll_OrderAndIDs(t *testing.T) {
	var ids []string
	for _, r := range All() {
		ids = append(ids, r.ID)
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.Pipeline)
	}
	assert.Equal(t, []string{"painel-norte", "ranking-proporcao", "alerta-municipios", "correlacao-buckets", "polo-educacional"}, ids)

	_, err := Find("nope")
	assert.ErrorIs(t, err, ErrUnknownReport)
	rep, err := Find("alerta-municipios")
	require.NoError(t, err)
	assert.Equal(t, storage.Municipalities, rep.Collection)
}

func TestNorthPanel_FacetsMatchPipeline(t *testing.T) {
	rep := northPanel()
	facet := stageValue(t, rep, "$facet").(bson.D)
	assert.Equal(t, rep.Facets, keys(facet))

	top := lookup(facet, "top_ufs_por_alunos_indigenas").(bson.A)
	assert.Equal(t, bson.D{{Key: "$limit", Value: 3}}, top[len(top)-1])
}

func TestSafeDivide_GuardsZero(t *testing.T) {
	expr := safeDivide("$a", "$b")
	cond := lookup(expr, "$cond").(bson.A)
	require.Len(t, cond, 3)
	assert.Equal(t, bson.D{{Key: "$eq", Value: bson.A{"$b", 0}}}, cond[0])
	assert.Equal(t, 0, cond[1])
	assert.Equal(t, bson.D{{Key: "$divide", Value: bson.A{"$a", "$b"}}}, cond[2])
}

func TestProportionRanking_UsesRankWithinState(t *testing.T) {
	rep := proportionRanking()
	win := stageValue(t, rep, "$setWindowFields").(bson.D)
	assert.Equal(t, "$dados_municipio.uf_sigla", lookup(win, "partitionBy"))
	assert.Equal(t, bson.D{{Key: "proporcao_indigena", Value: -1}}, lookup(win, "sortBy"))
	out := lookup(win, "output").(bson.D)
	assert.Equal(t, bson.D{{Key: "$rank", Value: bson.D{}}}, lookup(out, "ranking_no_estado"))

	match := stageValue(t, rep, "$match").(bson.D)
	assert.Equal(t, bson.D{{Key: "$lte", Value: 3}}, lookup(match, "ranking_no_estado"))

	proj := stageValue(t, rep, "$project").(bson.D)
	assert.Equal(t, []string{"_id", "Município", "UF", "Proporção de Alunos Indígenas", "Ranking no Estado"}, keys(proj))
}

func TestAlertMunicipalities_Thresholds(t *testing.T) {
	rep := alertMunicipalities()
	match := stageValue(t, rep, "$match").(bson.D)
	assert.Equal(t, bson.D{{Key: "$gt", Value: 5000}}, lookup(match, "populacao_indigena"))

	elem := lookup(lookup(match, "indicadores_educacionais.anos_estudo").(bson.D), "$elemMatch").(bson.D)
	assert.Equal(t, "25 anos ou mais", lookup(elem, "faixa_etaria"))
	assert.Equal(t, bson.D{{Key: "$lt", Value: 8}}, lookup(elem, "media_anos"))

	sort := stageValue(t, rep, "$sort").(bson.D)
	assert.Equal(t, bson.D{{Key: "Média Anos de Estudo (25+)", Value: 1}}, sort)
}

func TestProportionBuckets_FiveBuckets(t *testing.T) {
	rep := proportionBuckets()
	bucket := stageValue(t, rep, "$bucketAuto").(bson.D)
	assert.Equal(t, 5, lookup(bucket, "buckets"))
	assert.Equal(t, "$proporcao_pop_indigena", lookup(bucket, "groupBy"))

	fields := stageValue(t, rep, "$addFields").(bson.D)
	for _, name := range []string{"proporcao_pop_indigena", "proporcao_escolas_indigenas"} {
		expr := lookup(fields, name).(bson.D)
		assert.Equal(t, "$cond", expr[0].Key, "%s must be guarded", name)
	}
}

func TestEducationHubScore_Formula(t *testing.T) {
	rep := educationHubScore()
	fields := stageValue(t, rep, "$addFields").(bson.D)
	score := lookup(lookup(fields, "score").(bson.D), "$add").(bson.A)
	assert.Equal(t, bson.D{{Key: "$multiply", Value: bson.A{"$total_escolas_indigenas", 10}}}, score[0])
	assert.Equal(t, bson.D{{Key: "$multiply", Value: bson.A{"$total_alunos_indigenas", 0.5}}}, score[1])
	assert.Equal(t, bson.D{{Key: "$limit", Value: 10}}, rep.Pipeline[5])
}
