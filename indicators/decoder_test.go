package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionColumn(t *testing.T) {
	assert.Equal(t, 44, InstructionColumn(2, 5))
	assert.Equal(t, 1, InstructionColumn(0, 0))
	assert.Equal(t, 76, InstructionColumn(3, 18))
}

func TestStateAbbreviation(t *testing.T) {
	uf, ok := StateAbbreviation("São Paulo")
	require.True(t, ok)
	assert.Equal(t, "SP", uf)

	uf, ok = StateAbbreviation("  PARA ")
	require.True(t, ok)
	assert.Equal(t, "PA", uf)

	_, ok = StateAbbreviation("Norte")
	assert.False(t, ok)
	assert.Len(t, states, 27)
}

func TestDecodeAttendance(t *testing.T) {
	rows := [][]string{
		{"Brasil", "30", "90", "99", "85", "30", "5"},
		{"Norte"},
		{"Amazonas", "25,5", "88", "-", "X", "..", "..."},
		{"Atlântida", "1", "2", "3", "4", "5", "6"},
		{"Roraima", "", "oops", "97.1"},
		{},
	}

	got, st := DecodeAttendance(rows)

	require.Contains(t, got, "AM")
	am := got["AM"]
	require.Len(t, am, 2)
	assert.Equal(t, "0 a 3 anos", am[0].AgeBracket)
	assert.InDelta(t, 25.5, am[0].Rate, 1e-9)
	assert.Equal(t, "4 a 5 anos", am[1].AgeBracket)

	require.Contains(t, got, "RR")
	require.Len(t, got["RR"], 1)
	assert.Equal(t, "6 a 14 anos", got["RR"][0].AgeBracket)

	assert.NotContains(t, got, "")
	assert.Len(t, got, 2)
	assert.Equal(t, 2, st.Dropped, "Norte and the unknown state")
	assert.Equal(t, 3, st.Records)
}

func TestDecodeYearsOfStudy_StateWithoutDataIsEmpty(t *testing.T) {
	rows := [][]string{
		{"Acre", "-", "-", "-", "-", "-", "-"},
		{"Pará", "", "", "", "", "", "6,8"},
	}

	got, _ := DecodeYearsOfStudy(rows)

	acre, ok := got["AC"]
	require.True(t, ok)
	assert.NotNil(t, acre)
	assert.Empty(t, acre)

	require.Len(t, got["PA"], 1)
	assert.Equal(t, BracketAdults, got["PA"][0].AgeBracket)
	assert.InDelta(t, 6.8, got["PA"][0].MeanYears, 1e-9)
}

func instructionRow(label string, values map[int]string) []string {
	row := make([]string, 1+len(instructionLevels)*len(instructionBrackets))
	row[0] = label
	for i := 1; i < len(row); i++ {
		row[i] = "-"
	}
	for col, v := range values {
		row[col] = v
	}
	return row
}

func TestDecodeInstruction(t *testing.T) {
	rows := [][]string{
		instructionRow("Brasil", map[int]string{1: "1000"}),
		instructionRow("São Gabriel da Cachoeira", map[int]string{
			InstructionColumn(0, 0): "12000",
			InstructionColumn(2, 5): "431.0",
			InstructionColumn(3, 18): "X",
		}),
		instructionRow("1234", map[int]string{1: "5"}),
		{"Tabatinga", "77"},
	}

	got, st := DecodeInstruction(rows)

	require.Contains(t, got, "SAO GABRIEL DA CACHOEIRA")
	sg := got["SAO GABRIEL DA CACHOEIRA"]
	require.Len(t, sg, 2)
	assert.Equal(t, "Total", sg[0].AgeBracket)
	assert.Equal(t, "Sem instrução", sg[0].Level)
	assert.Equal(t, int64(12000), sg[0].People)
	assert.Equal(t, "25 a 64 anos", sg[1].AgeBracket)
	assert.Equal(t, "Médio completo", sg[1].Level)
	assert.Equal(t, int64(431), sg[1].People)

	require.Len(t, got["TABATINGA"], 1, "short rows keep the columns they have")
	assert.NotContains(t, got, "BRASIL")
	assert.NotContains(t, got, "1234")
	assert.Equal(t, 2, st.Rows)
	assert.Equal(t, 3, st.Records)
}

func TestDecode_SentinelsNeverProduceRecords(t *testing.T) {
	for _, sentinel := range []string{"-", "", "X", "..", "..."} {
		rows := [][]string{{"Bahia", sentinel, sentinel, sentinel, sentinel, sentinel, sentinel}}
		att, _ := DecodeAttendance(rows)
		assert.Empty(t, att["BA"], "sentinel %q", sentinel)

		inst, _ := DecodeInstruction([][]string{instructionRow("Salvador", map[int]string{1: sentinel})})
		assert.Empty(t, inst["SALVADOR"], "sentinel %q", sentinel)
	}
}
