package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const territoryNamePrefix = "Território Indígena em "

type Territory struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name   string             `bson:"nome_territorio" json:"nome_territorio"`
	State  string             `bson:"uf_sigla" json:"uf_sigla"`
	Region string             `bson:"regiao_nome" json:"regiao_nome"`
}

// TerritoryName synthesizes the display name of the territory found in a municipality.
func TerritoryName(municipality string) string {
	return territoryNamePrefix + municipality
}
