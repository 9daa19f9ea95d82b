package census

import (
	"sort"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/indicators"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/models"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MunicipalityGroup aggregates every census row of one municipality code.
// Descriptive fields come from the first row seen; enrollments are summed.
type MunicipalityGroup struct {
	Code                 int64
	Name                 string
	State                string
	Region               string
	TotalEnrollment      int64
	IndigenousEnrollment int64
}

// GroupMunicipalities groups rows by municipality code, in ascending code order.
func GroupMunicipalities(rows []Row) []MunicipalityGroup {
	byCode := make(map[int64]*MunicipalityGroup)
	for _, r := range rows {
		g, ok := byCode[r.MunicipalityCode]
		if !ok {
			g = &MunicipalityGroup{
				Code:   r.MunicipalityCode,
				Name:   r.MunicipalityName,
				State:  r.State,
				Region: r.Region,
			}
			byCode[r.MunicipalityCode] = g
		}
		g.TotalEnrollment += r.EnrollTotal
		g.IndigenousEnrollment += r.EnrollIndig
	}

	groups := make([]MunicipalityGroup, 0, len(byCode))
	for _, g := range byCode {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Code < groups[j].Code })
	return groups
}

// BuildMunicipalities creates one document per group, in group order, and
// reports how many found a row in the instruction table.
func BuildMunicipalities(groups []MunicipalityGroup, set *indicators.Set) ([]models.Municipality, int) {
	docs := make([]models.Municipality, 0, len(groups))
	matched := 0
	for _, g := range groups {
		key := utils.Normalize(g.Name)
		if set.HasInstruction(key) {
			matched++
		}
		docs = append(docs, models.Municipality{
			Name:            g.Name,
			State:           g.State,
			Region:          g.Region,
			TotalPopulation: g.TotalEnrollment,
			IndigenousPop:   g.IndigenousEnrollment,
			Indicators:      set.ForMunicipality(g.State, key),
		})
	}
	return docs, matched
}

// SchoolStats describes what BuildSchools kept.
type SchoolStats struct {
	Unique   int
	Unmapped int
	// UnmappedCodes lists the municipality codes that had no inserted document.
	UnmappedCodes []int64
}

// BuildSchools creates one document per distinct school code (first row
// wins). Schools whose municipality is not in codeToID are left out and
// counted in the stats.
func BuildSchools(rows []Row, codeToID map[int64]primitive.ObjectID) ([]models.School, SchoolStats) {
	seen := make(map[string]bool, len(rows))
	missing := make(map[int64]bool)
	var st SchoolStats
	docs := make([]models.School, 0, len(rows))

	for _, r := range rows {
		if seen[r.SchoolCode] {
			continue
		}
		seen[r.SchoolCode] = true
		st.Unique++

		munID, ok := codeToID[r.MunicipalityCode]
		if !ok {
			st.Unmapped++
			if !missing[r.MunicipalityCode] {
				missing[r.MunicipalityCode] = true
				st.UnmappedCodes = append(st.UnmappedCodes, r.MunicipalityCode)
			}
			continue
		}
		docs = append(docs, buildSchool(r, munID))
	}
	return docs, st
}

func buildSchool(r Row, munID primitive.ObjectID) models.School {
	classes := make([]models.ClassCount, 0, 3)
	for _, c := range []models.ClassCount{
		{Level: models.LevelInfantil, Classes: r.ClassesInf},
		{Level: models.LevelFundamental, Classes: r.ClassesFund},
		{Level: models.LevelMedio, Classes: r.ClassesMedio},
	} {
		if c.Classes > 0 {
			classes = append(classes, c)
		}
	}

	offered := make([]string, 0, 3)
	if r.OffersInfantil != 0 {
		offered = append(offered, models.LevelInfantil)
	}
	if r.OffersFundAI != 0 || r.OffersFundAF != 0 {
		offered = append(offered, models.LevelFundamental)
	}
	if r.OffersMedio != 0 {
		offered = append(offered, models.LevelMedio)
	}

	enrollments := []models.Enrollment{}
	if len(offered) > 0 {
		enrollments = append(enrollments, models.Enrollment{
			ReferenceYear: r.Year,
			OfferedLevels: offered,
			Total:         r.EnrollTotal,
			Indigenous:    r.EnrollIndig,
		})
	}

	return models.School{
		Name:           r.SchoolName,
		MunicipalityID: munID,
		State:          r.State,
		Region:         r.Region,
		Dependency:     models.DependencyLabel(r.Dependency),
		Location:       models.LocationLabel(r.Location),
		Status:         models.StatusLabel(r.Status),
		Indigenous:     r.IndigenousEdu != 0,
		Classes:        classes,
		Enrollments:    enrollments,
	}
}

// BuildTerritories creates one territory per (municipality name, state)
// among rows located in indigenous land, in first-seen order.
func BuildTerritories(rows []Row) []models.Territory {
	type key struct{ name, state string }
	seen := make(map[key]bool)
	docs := make([]models.Territory, 0)
	for _, r := range rows {
		if r.DiffLocation != DiffLocationIndigenous {
			continue
		}
		k := key{r.MunicipalityName, r.State}
		if seen[k] {
			continue
		}
		seen[k] = true
		docs = append(docs, models.Territory{
			Name:   models.TerritoryName(r.MunicipalityName),
			State:  r.State,
			Region: r.Region,
		})
	}
	return docs
}
