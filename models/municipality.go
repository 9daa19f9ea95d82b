package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Municipality struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name            string              `bson:"nome_municipio" json:"nome_municipio"`
	State           string              `bson:"uf_sigla" json:"uf_sigla"`
	Region          string              `bson:"regiao_nome" json:"regiao_nome"`
	TotalPopulation int64               `bson:"populacao_total" json:"populacao_total"`
	IndigenousPop   int64               `bson:"populacao_indigena" json:"populacao_indigena"`
	Indicators      EducationIndicators `bson:"indicadores_educacionais" json:"indicadores_educacionais"`
}
