// Package reports holds the five analytical aggregations run against the
// loaded collections.
package reports

import (
	"github.com/aabenjamim/MC536-ed-indigena-mongo/indicators"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/storage"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnknownReport is returned by Find for ids not in All.
var ErrUnknownReport = errors.New("unknown report")

// Report is one read-only aggregation over a collection.
type Report struct {
	ID         string
	Title      string
	Collection string
	Pipeline   mongo.Pipeline
	// Facets names the sub-results of a $facet report, in display order.
	Facets []string
}

type stage = bson.D

func kv(key string, value interface{}) bson.E {
	return bson.E{Key: key, Value: value}
}

// safeDivide is numerator/denominator, or 0 when the denominator is 0.
func safeDivide(numerator, denominator string) bson.D {
	return bson.D{kv("$cond", bson.A{
		bson.D{kv("$eq", bson.A{denominator, 0})},
		0,
		bson.D{kv("$divide", bson.A{numerator, denominator})},
	})}
}

func lookupMunicipality(as string) stage {
	return stage{kv("$lookup", bson.D{
		kv("from", storage.Municipalities),
		kv("localField", "_id"),
		kv("foreignField", "_id"),
		kv("as", as),
	})}
}

// All returns the reports in the order they are printed.
func All() []Report {
	return []Report{
		northPanel(),
		proportionRanking(),
		alertMunicipalities(),
		proportionBuckets(),
		educationHubScore(),
	}
}

// Find returns the report with the given id.
func Find(id string) (Report, error) {
	for _, r := range All() {
		if r.ID == id {
			return r, nil
		}
	}
	return Report{}, errors.Wrapf(ErrUnknownReport, "%q", id)
}

// northPanel: in the North region, the three states with most indigenous
// students and the indigenous schools by administrative dependency.
func northPanel() Report {
	return Report{
		ID:         "painel-norte",
		Title:      "Painel da Educação Indígena na Região Norte",
		Collection: storage.Schools,
		Facets:     []string{"top_ufs_por_alunos_indigenas", "escolas_indigenas_por_dependencia"},
		Pipeline: mongo.Pipeline{
			{kv("$match", bson.D{kv("regiao_nome", "Norte")})},
			{kv("$facet", bson.D{
				kv("top_ufs_por_alunos_indigenas", bson.A{
					bson.D{kv("$unwind", "$matriculas")},
					bson.D{kv("$group", bson.D{
						kv("_id", "$uf_sigla"),
						kv("total_alunos_indigenas", bson.D{kv("$sum", "$matriculas.qt_matriculas_indigenas")}),
					})},
					bson.D{kv("$sort", bson.D{kv("total_alunos_indigenas", -1)})},
					bson.D{kv("$limit", 3)},
				}),
				kv("escolas_indigenas_por_dependencia", bson.A{
					bson.D{kv("$match", bson.D{kv("indigena", true)})},
					bson.D{kv("$group", bson.D{
						kv("_id", "$tipo_dependencia"),
						kv("quantidade", bson.D{kv("$sum", 1)}),
					})},
					bson.D{kv("$sort", bson.D{kv("quantidade", -1)})},
				}),
			})},
		},
	}
}

// proportionRanking: top 3 municipalities of each state by share of
// indigenous students. Ties share a rank and leave a gap after them.
func proportionRanking() Report {
	return Report{
		ID:         "ranking-proporcao",
		Title:      "Top 3 Municípios por UF com Maior Proporção de Alunos Indígenas",
		Collection: storage.Schools,
		Pipeline: mongo.Pipeline{
			{kv("$unwind", "$matriculas")},
			{kv("$group", bson.D{
				kv("_id", "$municipio_id"),
				kv("total_alunos", bson.D{kv("$sum", "$matriculas.qt_matriculas_total")}),
				kv("total_alunos_indigenas", bson.D{kv("$sum", "$matriculas.qt_matriculas_indigenas")}),
			})},
			lookupMunicipality("dados_municipio"),
			{kv("$unwind", "$dados_municipio")},
			{kv("$addFields", bson.D{
				kv("proporcao_indigena", safeDivide("$total_alunos_indigenas", "$total_alunos")),
			})},
			{kv("$setWindowFields", bson.D{
				kv("partitionBy", "$dados_municipio.uf_sigla"),
				kv("sortBy", bson.D{kv("proporcao_indigena", -1)}),
				kv("output", bson.D{kv("ranking_no_estado", bson.D{kv("$rank", bson.D{})})}),
			})},
			{kv("$match", bson.D{kv("ranking_no_estado", bson.D{kv("$lte", 3)})})},
			{kv("$sort", bson.D{kv("dados_municipio.uf_sigla", 1), kv("ranking_no_estado", 1)})},
			{kv("$project", bson.D{
				kv("_id", 0),
				kv("Município", "$dados_municipio.nome_municipio"),
				kv("UF", "$dados_municipio.uf_sigla"),
				kv("Proporção de Alunos Indígenas", "$proporcao_indigena"),
				kv("Ranking no Estado", "$ranking_no_estado"),
			})},
		},
	}
}

// alertMunicipalities: more than 5000 indigenous students and adults with
// less than 8 years of study on average.
func alertMunicipalities() Report {
	const meanLabel = "Média Anos de Estudo (25+)"
	return Report{
		ID:         "alerta-municipios",
		Title:      "Municípios com >5.000 Indígenas e Média de Estudo < 8 anos",
		Collection: storage.Municipalities,
		Pipeline: mongo.Pipeline{
			{kv("$match", bson.D{
				kv("populacao_indigena", bson.D{kv("$gt", 5000)}),
				kv("indicadores_educacionais.anos_estudo", bson.D{kv("$elemMatch", bson.D{
					kv("faixa_etaria", indicators.BracketAdults),
					kv("media_anos", bson.D{kv("$lt", 8)}),
				})}),
			})},
			{kv("$unwind", "$indicadores_educacionais.anos_estudo")},
			{kv("$match", bson.D{kv("indicadores_educacionais.anos_estudo.faixa_etaria", indicators.BracketAdults)})},
			{kv("$project", bson.D{
				kv("_id", 0),
				kv("Município", "$nome_municipio"),
				kv("UF", "$uf_sigla"),
				kv("População Indígena", "$populacao_indigena"),
				kv(meanLabel, "$indicadores_educacionais.anos_estudo.media_anos"),
			})},
			{kv("$sort", bson.D{kv(meanLabel, 1)})},
		},
	}
}

// proportionBuckets: municipalities split into five automatic buckets of
// indigenous population share, with the mean share of indigenous schools.
func proportionBuckets() Report {
	return Report{
		ID:         "correlacao-buckets",
		Title:      "Proporção de Escolas Indígenas por Faixa de População Indígena do Município",
		Collection: storage.Schools,
		Pipeline: mongo.Pipeline{
			{kv("$group", bson.D{
				kv("_id", "$municipio_id"),
				kv("total_escolas", bson.D{kv("$sum", 1)}),
				kv("escolas_indigenas", bson.D{kv("$sum", bson.D{kv("$cond", bson.A{"$indigena", 1, 0})})}),
			})},
			lookupMunicipality("info_municipio"),
			{kv("$unwind", "$info_municipio")},
			{kv("$addFields", bson.D{
				kv("proporcao_pop_indigena", safeDivide("$info_municipio.populacao_indigena", "$info_municipio.populacao_total")),
				kv("proporcao_escolas_indigenas", safeDivide("$escolas_indigenas", "$total_escolas")),
			})},
			{kv("$bucketAuto", bson.D{
				kv("groupBy", "$proporcao_pop_indigena"),
				kv("buckets", 5),
				kv("output", bson.D{
					kv("total_municipios", bson.D{kv("$sum", 1)}),
					kv("media_proporcao_escolas_indigenas", bson.D{kv("$avg", "$proporcao_escolas_indigenas")}),
				}),
			})},
			{kv("$project", bson.D{
				kv("_id", 0),
				kv("faixa_proporcao_pop_indigena", bson.D{
					kv("min", bson.D{kv("$multiply", bson.A{"$_id.min", 100})}),
					kv("max", bson.D{kv("$multiply", bson.A{"$_id.max", 100})}),
				}),
				kv("total_municipios_na_faixa", "$total_municipios"),
				kv("media_de_escolas_indigenas_nesta_faixa (%)", bson.D{kv("$multiply", bson.A{"$media_proporcao_escolas_indigenas", 100})}),
			})},
		},
	}
}

// educationHubScore: top 10 municipalities by
// 10 × indigenous schools + 0.5 × indigenous students.
func educationHubScore() Report {
	return Report{
		ID:         "polo-educacional",
		Title:      "Top 10 Municípios por Score de 'Polo Educacional Indígena'",
		Collection: storage.Schools,
		Pipeline: mongo.Pipeline{
			{kv("$match", bson.D{kv("indigena", true)})},
			{kv("$unwind", "$matriculas")},
			{kv("$group", bson.D{
				kv("_id", "$municipio_id"),
				kv("total_escolas_indigenas", bson.D{kv("$sum", 1)}),
				kv("total_alunos_indigenas", bson.D{kv("$sum", "$matriculas.qt_matriculas_indigenas")}),
			})},
			{kv("$addFields", bson.D{kv("score", bson.D{kv("$add", bson.A{
				bson.D{kv("$multiply", bson.A{"$total_escolas_indigenas", 10})},
				bson.D{kv("$multiply", bson.A{"$total_alunos_indigenas", 0.5})},
			})})})},
			{kv("$sort", bson.D{kv("score", -1)})},
			{kv("$limit", 10)},
			lookupMunicipality("dados_municipio"),
			{kv("$unwind", "$dados_municipio")},
			{kv("$project", bson.D{
				kv("_id", 0),
				kv("Município", "$dados_municipio.nome_municipio"),
				kv("UF", "$dados_municipio.uf_sigla"),
				kv("Score", bson.D{kv("$round", bson.A{"$score", 2})}),
				kv("Escolas Indígenas", "$total_escolas_indigenas"),
				kv("Alunos Indígenas", "$total_alunos_indigenas"),
			})},
		},
	}
}
