// Package census turns the school census microdata into the municipality,
// school and indigenous territory documents and loads them into the store.
package census

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/utils"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// ErrMissingColumn is returned when the census header lacks a required column.
var ErrMissingColumn = errors.New("census: required column missing")

// Census column names.
const (
	colMunicipalityCode = "CO_MUNICIPIO"
	colMunicipalityName = "NO_MUNICIPIO"
	colState            = "SG_UF"
	colRegion           = "NO_REGIAO"
	colSchoolCode       = "CO_ENTIDADE"
	colSchoolName       = "NO_ENTIDADE"
	colDependency       = "TP_DEPENDENCIA"
	colLocation         = "TP_LOCALIZACAO"
	colStatus           = "TP_SITUACAO_FUNCIONAMENTO"
	colDiffLocation     = "TP_LOCALIZACAO_DIFERENCIADA"
	colIndigenousEdu    = "IN_EDUCACAO_INDIGENA"
	colYear             = "NU_ANO_CENSO"
	colEnrollTotal      = "QT_MAT_BAS"
	colEnrollIndigenous = "QT_MAT_BAS_INDIGENA"
	colClassesInfantil  = "QT_TUR_INF"
	colClassesFund      = "QT_TUR_FUND"
	colClassesMedio     = "QT_TUR_MED"
	colClassesEJA       = "QT_TUR_EJA"
	colOffersInfantil   = "IN_INF"
	colOffersFundAI     = "IN_FUND_AI"
	colOffersFundAF     = "IN_FUND_AF"
	colOffersMedio      = "IN_MED"
	colOffersEJA        = "IN_EJA"
)

var requiredColumns = []string{
	colMunicipalityCode, colMunicipalityName, colState, colRegion, colSchoolCode, colSchoolName,
}

// DiffLocationIndigenous is the TP_LOCALIZACAO_DIFERENCIADA code for
// schools in indigenous land.
const DiffLocationIndigenous = 1

// Row is one school line of the census, numeric columns already coerced.
// Missing or malformed numbers read as 0.
type Row struct {
	MunicipalityCode int64
	MunicipalityName string
	State            string
	Region           string
	SchoolCode       string
	SchoolName       string

	Dependency     int64
	Location       int64
	Status         int64
	DiffLocation   int64
	IndigenousEdu  int64
	Year           int64
	EnrollTotal    int64
	EnrollIndig    int64
	ClassesInf     int64
	ClassesFund    int64
	ClassesMedio   int64
	ClassesEJA     int64
	OffersInfantil int64
	OffersFundAI   int64
	OffersFundAF   int64
	OffersMedio    int64
	OffersEJA      int64
}

// ReadResult is the parsed census plus the number of lines that were skipped
// because their municipality code could not be read.
type ReadResult struct {
	Rows    []Row
	Skipped int
}

// ReadFile loads the whole census file. It is Latin-1 encoded and uses ';'
// as separator.
func ReadFile(path string) (*ReadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "census file %s", path)
	}
	res, err := Read(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return res, nil
}

// Read parses already decoded census text.
func Read(r io.Reader) (*ReadResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "%s", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(rec []string, col string) int64 {
		return utils.CoerceInt(field(rec, col))
	}

	res := &ReadResult{Rows: []Row{}}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		code, ok := utils.ParseCode(field(rec, colMunicipalityCode))
		if !ok {
			res.Skipped++
			continue
		}

		res.Rows = append(res.Rows, Row{
			MunicipalityCode: code,
			MunicipalityName: field(rec, colMunicipalityName),
			State:            field(rec, colState),
			Region:           field(rec, colRegion),
			SchoolCode:       field(rec, colSchoolCode),
			SchoolName:       field(rec, colSchoolName),
			Dependency:       num(rec, colDependency),
			Location:         num(rec, colLocation),
			Status:           num(rec, colStatus),
			DiffLocation:     num(rec, colDiffLocation),
			IndigenousEdu:    num(rec, colIndigenousEdu),
			Year:             num(rec, colYear),
			EnrollTotal:      num(rec, colEnrollTotal),
			EnrollIndig:      num(rec, colEnrollIndigenous),
			ClassesInf:       num(rec, colClassesInfantil),
			ClassesFund:      num(rec, colClassesFund),
			ClassesMedio:     num(rec, colClassesMedio),
			ClassesEJA:       num(rec, colClassesEJA),
			OffersInfantil:   num(rec, colOffersInfantil),
			OffersFundAI:     num(rec, colOffersFundAI),
			OffersFundAF:     num(rec, colOffersFundAF),
			OffersMedio:      num(rec, colOffersMedio),
			OffersEJA:        num(rec, colOffersEJA),
		})
	}
	return res, nil
}
