package census

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

var fixtureHeader = []string{
	"NU_ANO_CENSO", "NO_REGIAO", "SG_UF", "NO_MUNICIPIO", "CO_MUNICIPIO", "NO_ENTIDADE", "CO_ENTIDADE",
	"TP_DEPENDENCIA", "TP_LOCALIZACAO", "TP_LOCALIZACAO_DIFERENCIADA", "TP_SITUACAO_FUNCIONAMENTO",
	"IN_EDUCACAO_INDIGENA", "IN_INF", "IN_FUND_AI", "IN_FUND_AF", "IN_MED", "IN_EJA",
	"QT_TUR_INF", "QT_TUR_FUND", "QT_TUR_MED", "QT_TUR_EJA", "QT_MAT_BAS", "QT_MAT_BAS_INDIGENA",
}

// twoSchoolCensus is one municipality with 100 students, 10 of them
// indigenous, all in the indigenous school.
var twoSchoolCensus = [][]string{
	{"2023", "Norte", "AM", "São Gabriel da Cachoeira", "1303809", "EE Indígena Baré", "13000001",
		"2", "2", "1", "1", "1", "0", "1", "0", "0", "0", "0", "4", "0", "0", "90", "10"},
	{"2023", "Norte", "AM", "São Gabriel da Cachoeira", "1303809", "EM Centro", "13000002",
		"3", "1", "0", "1", "0", "1", "0", "0", "0", "0", "2", "0", "0", "0", "10", "0"},
}

func censusText(header []string, rows [][]string) string {
	lines := []string{strings.Join(header, ";")}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ";"))
	}
	return strings.Join(lines, "\n") + "\n"
}

// writeCensus writes rows as a Latin-1 encoded census file.
func writeCensus(t *testing.T, dir string, header []string, rows [][]string) string {
	t.Helper()
	encoded, err := charmap.ISO8859_1.NewEncoder().String(censusText(header, rows))
	require.NoError(t, err)

	path := filepath.Join(dir, "microdados_ed_basica_2023.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}
