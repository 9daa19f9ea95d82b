package indicators

import (
	"context"
	"log/slog"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/models"
	"golang.org/x/sync/errgroup"
)

// Files names the three indicator spreadsheets.
type Files struct {
	Attendance   string
	YearsOfStudy string
	Instruction  string
}

// Set holds every decoded indicator, ready to be attached to municipalities.
type Set struct {
	Attendance   map[string][]models.AttendanceRate
	YearsOfStudy map[string][]models.YearsOfStudy
	Instruction  map[string][]models.InstructionLevel
}

// ForMunicipality returns the indicator block of a municipality. Missing
// lookups give empty lists.
func (s *Set) ForMunicipality(uf, normalizedName string) models.EducationIndicators {
	return models.NewEducationIndicators(
		s.Attendance[uf],
		s.YearsOfStudy[uf],
		s.Instruction[normalizedName],
	)
}

// HasInstruction reports whether the instruction table had a row for the name.
func (s *Set) HasInstruction(normalizedName string) bool {
	return len(s.Instruction[normalizedName]) > 0
}

// Load reads and decodes the three tables. With parallel set the tables are
// read concurrently; the result does not depend on it.
func Load(ctx context.Context, files Files, skipRows int, parallel bool, logger *slog.Logger) (*Set, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		set                         Set
		attStats, yrsStats, inStats Stats
	)

	tasks := []func() error{
		func() error {
			rows, err := ReadSheet(files.Attendance, skipRows)
			if err != nil {
				return err
			}
			set.Attendance, attStats = DecodeAttendance(rows)
			return nil
		},
		func() error {
			rows, err := ReadSheet(files.YearsOfStudy, skipRows)
			if err != nil {
				return err
			}
			set.YearsOfStudy, yrsStats = DecodeYearsOfStudy(rows)
			return nil
		},
		func() error {
			rows, err := ReadSheet(files.Instruction, skipRows)
			if err != nil {
				return err
			}
			set.Instruction, inStats = DecodeInstruction(rows)
			return nil
		},
	}

	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, task := range tasks {
			task := task
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return task()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, Stats{}, err
		}
	} else {
		for _, task := range tasks {
			if err := ctx.Err(); err != nil {
				return nil, Stats{}, err
			}
			if err := task(); err != nil {
				return nil, Stats{}, err
			}
		}
	}

	logger.Info("Decoded attendance table", "states", len(set.Attendance), "records", attStats.Records, "dropped_rows", attStats.Dropped)
	logger.Info("Decoded years of study table", "states", len(set.YearsOfStudy), "records", yrsStats.Records, "dropped_rows", yrsStats.Dropped)
	logger.Info("Decoded instruction level table", "municipalities", len(set.Instruction), "records", inStats.Records)

	var total Stats
	total.add(attStats)
	total.add(yrsStats)
	total.add(inStats)
	return &set, total, nil
}
