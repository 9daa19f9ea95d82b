// Package indicators decodes the IBGE indicator spreadsheets (school
// attendance, mean years of study and instruction level) into records keyed
// by state abbreviation or by normalized municipality name.
package indicators

import (
	"strconv"
	"strings"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/models"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/utils"
)

const nationalTotal = "BRASIL"

var states = []struct {
	Name string
	UF   string
}{
	{"Rondônia", "RO"}, {"Acre", "AC"}, {"Amazonas", "AM"}, {"Roraima", "RR"},
	{"Pará", "PA"}, {"Amapá", "AP"}, {"Tocantins", "TO"}, {"Maranhão", "MA"},
	{"Piauí", "PI"}, {"Ceará", "CE"}, {"Rio Grande do Norte", "RN"}, {"Paraíba", "PB"},
	{"Pernambuco", "PE"}, {"Alagoas", "AL"}, {"Sergipe", "SE"}, {"Bahia", "BA"},
	{"Minas Gerais", "MG"}, {"Espírito Santo", "ES"}, {"Rio de Janeiro", "RJ"},
	{"São Paulo", "SP"}, {"Paraná", "PR"}, {"Santa Catarina", "SC"},
	{"Rio Grande do Sul", "RS"}, {"Mato Grosso do Sul", "MS"}, {"Mato Grosso", "MT"},
	{"Goiás", "GO"}, {"Distrito Federal", "DF"},
}

var stateByName = func() map[string]string {
	m := make(map[string]string, len(states))
	for _, s := range states {
		m[utils.Normalize(s.Name)] = s.UF
	}
	return m
}()

// StateAbbreviation maps a full state name to its UF, ignoring case and accents.
func StateAbbreviation(name string) (string, bool) {
	uf, ok := stateByName[utils.Normalize(name)]
	return uf, ok
}

// ageBrackets are the columns of the attendance and years-of-study tables.
var ageBrackets = []struct {
	Label  string
	Column int
}{
	{"0 a 3 anos", 1},
	{"4 a 5 anos", 2},
	{"6 a 14 anos", 3},
	{"15 a 17 anos", 4},
	{"18 a 24 anos", 5},
	{"25 anos ou mais", 6},
}

// BracketAdults is the bracket used to flag low schooling among adults.
const BracketAdults = "25 anos ou mais"

var instructionLevels = []struct {
	Label string
	Short string
}{
	{"Sem instrução e fundamental incompleto", "Sem instrução"},
	{"Fundamental completo e médio incompleto", "Fundamental completo"},
	{"Médio completo e superior incompleto", "Médio completo"},
	{"Superior completo", "Superior completo"},
}

var instructionBrackets = []string{
	"Total", "18 a 24 anos", "18 a 19 anos", "20 a 24 anos",
	"25 anos ou mais", "25 a 64 anos", "25 a 29 anos", "30 a 34 anos",
	"35 a 39 anos", "40 a 44 anos", "45 a 49 anos", "50 a 54 anos",
	"55 a 59 anos", "60 a 64 anos", "65 anos ou mais", "65 a 69 anos",
	"70 a 74 anos", "75 a 79 anos", "80 anos ou mais",
}

// InstructionColumn is the column holding (level, bracket) in the
// instruction table: levels are laid out side by side, each spanning every
// age bracket.
func InstructionColumn(level, bracket int) int {
	return 1 + level*len(instructionBrackets) + bracket
}

// Stats counts what a decode kept and dropped.
type Stats struct {
	Rows    int
	Dropped int
	Records int
}

func (s *Stats) add(o Stats) {
	s.Rows += o.Rows
	s.Dropped += o.Dropped
	s.Records += o.Records
}

func cell(row []string, col int) (string, bool) {
	if col < 0 || col >= len(row) {
		return "", false
	}
	return row[col], true
}

func rowLabel(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return strings.TrimSpace(row[0])
}

// decodeByState walks a state-level table and hands every valid
// (bracket, value) pair of a state row to emit. Rows without a known state
// label are dropped.
func decodeByState(rows [][]string, emit func(uf, bracket string, v float64)) Stats {
	var st Stats
	for _, row := range rows {
		label := rowLabel(row)
		if label == "" || utils.Normalize(label) == nationalTotal {
			continue
		}
		st.Rows++
		uf, ok := StateAbbreviation(label)
		if !ok {
			st.Dropped++
			continue
		}
		emit(uf, "", 0)
		for _, b := range ageBrackets {
			raw, ok := cell(row, b.Column)
			if !ok {
				continue
			}
			v, ok := utils.ParseIndicatorNumber(raw)
			if !ok {
				continue
			}
			emit(uf, b.Label, v)
			st.Records++
		}
	}
	return st
}

// DecodeAttendance decodes the school attendance table by state.
func DecodeAttendance(rows [][]string) (map[string][]models.AttendanceRate, Stats) {
	out := make(map[string][]models.AttendanceRate)
	st := decodeByState(rows, func(uf, bracket string, v float64) {
		if bracket == "" {
			// a later row for the same state replaces the earlier one
			out[uf] = []models.AttendanceRate{}
			return
		}
		out[uf] = append(out[uf], models.AttendanceRate{AgeBracket: bracket, Rate: v})
	})
	return out, st
}

// DecodeYearsOfStudy decodes the mean years of study table by state.
func DecodeYearsOfStudy(rows [][]string) (map[string][]models.YearsOfStudy, Stats) {
	out := make(map[string][]models.YearsOfStudy)
	st := decodeByState(rows, func(uf, bracket string, v float64) {
		if bracket == "" {
			out[uf] = []models.YearsOfStudy{}
			return
		}
		out[uf] = append(out[uf], models.YearsOfStudy{AgeBracket: bracket, MeanYears: v})
	})
	return out, st
}

// DecodeInstruction decodes the instruction level table. Unlike the state
// tables its rows are municipalities, keyed by normalized name.
func DecodeInstruction(rows [][]string) (map[string][]models.InstructionLevel, Stats) {
	out := make(map[string][]models.InstructionLevel)
	var st Stats
	for _, row := range rows {
		label := rowLabel(row)
		if label == "" || isNumeric(label) {
			continue
		}
		key := utils.Normalize(label)
		if key == "" || key == nationalTotal {
			continue
		}
		st.Rows++

		for li, level := range instructionLevels {
			for bi, bracket := range instructionBrackets {
				raw, ok := cell(row, InstructionColumn(li, bi))
				if !ok {
					continue
				}
				v, ok := utils.ParseIndicatorNumber(raw)
				if !ok {
					continue
				}
				out[key] = append(out[key], models.InstructionLevel{
					AgeBracket: bracket,
					Level:      level.Short,
					People:     int64(v),
				})
				st.Records++
			}
		}
	}
	return out, st
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return err == nil
}
