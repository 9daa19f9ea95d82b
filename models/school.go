package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Stored category labels. "NI" (não informado) marks codes outside the census dictionary.
const (
	Unknown = "NI"

	DependencyFederal   = "Federal"
	DependencyState     = "Estadual"
	DependencyMunicipal = "Municipal"
	DependencyPrivate   = "Privada"

	LocationUrban = "Urbana"
	LocationRural = "Rural"

	StatusActive    = "Ativa"
	StatusInactive  = "Inativa"
	StatusSuspended = "Paralisada"
)

// Education levels used for classes and offered levels.
const (
	LevelInfantil    = "Infantil"
	LevelFundamental = "Fundamental"
	LevelMedio       = "Médio"
)

var dependencyLabels = map[int64]string{
	1: DependencyFederal,
	2: DependencyState,
	3: DependencyMunicipal,
	4: DependencyPrivate,
}

var locationLabels = map[int64]string{
	1: LocationUrban,
	2: LocationRural,
}

var statusLabels = map[int64]string{
	1: StatusActive,
	2: StatusInactive,
	3: StatusSuspended,
}

func DependencyLabel(code int64) string { return labelOrUnknown(dependencyLabels, code) }
func LocationLabel(code int64) string   { return labelOrUnknown(locationLabels, code) }
func StatusLabel(code int64) string     { return labelOrUnknown(statusLabels, code) }

func labelOrUnknown(labels map[int64]string, code int64) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return Unknown
}

type School struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"nome_escola" json:"nome_escola"`
	MunicipalityID primitive.ObjectID `bson:"municipio_id" json:"municipio_id"`
	State          string             `bson:"uf_sigla" json:"uf_sigla"`
	Region         string             `bson:"regiao_nome" json:"regiao_nome"`
	Dependency     string             `bson:"tipo_dependencia" json:"tipo_dependencia"`
	Location       string             `bson:"tipo_localizacao" json:"tipo_localizacao"`
	Status         string             `bson:"situacao_funcionamento" json:"situacao_funcionamento"`
	Indigenous     bool               `bson:"indigena" json:"indigena"`
	Classes        []ClassCount       `bson:"turmas" json:"turmas"`
	Enrollments    []Enrollment       `bson:"matriculas" json:"matriculas"`
}

type ClassCount struct {
	Level   string `bson:"nivel_ensino" json:"nivel_ensino"`
	Classes int64  `bson:"qt_turmas" json:"qt_turmas"`
}

type Enrollment struct {
	ReferenceYear int64    `bson:"ano_referencia" json:"ano_referencia"`
	OfferedLevels []string `bson:"niveis_ofertados" json:"niveis_ofertados"`
	Total         int64    `bson:"qt_matriculas_total" json:"qt_matriculas_total"`
	Indigenous    int64    `bson:"qt_matriculas_indigenas" json:"qt_matriculas_indigenas"`
}
