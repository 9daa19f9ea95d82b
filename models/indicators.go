package models

// AttendanceRate is the school attendance rate (%) of an age bracket in a state.
type AttendanceRate struct {
	AgeBracket string  `bson:"faixa_etaria" json:"faixa_etaria"`
	Rate       float64 `bson:"taxa" json:"taxa"`
}

// YearsOfStudy is the mean number of years of study of an age bracket in a state.
type YearsOfStudy struct {
	AgeBracket string  `bson:"faixa_etaria" json:"faixa_etaria"`
	MeanYears  float64 `bson:"media_anos" json:"media_anos"`
}

// InstructionLevel counts people of an age bracket by highest instruction level.
type InstructionLevel struct {
	AgeBracket string `bson:"faixa_etaria" json:"faixa_etaria"`
	Level      string `bson:"nivel" json:"nivel"`
	People     int64  `bson:"qt_pessoas" json:"qt_pessoas"`
}

// EducationIndicators is embedded in every municipality document. The lists
// are empty, never nil, when no source row matched.
type EducationIndicators struct {
	Attendance   []AttendanceRate   `bson:"frequencia_escolar" json:"frequencia_escolar"`
	YearsOfStudy []YearsOfStudy     `bson:"anos_estudo" json:"anos_estudo"`
	Instruction  []InstructionLevel `bson:"nivel_instrucao" json:"nivel_instrucao"`
}

// NewEducationIndicators copies the given lists, replacing nil with empty slices
// so they are stored as [] instead of null.
func NewEducationIndicators(att []AttendanceRate, years []YearsOfStudy, inst []InstructionLevel) EducationIndicators {
	ind := EducationIndicators{
		Attendance:   make([]AttendanceRate, 0, len(att)),
		YearsOfStudy: make([]YearsOfStudy, 0, len(years)),
		Instruction:  make([]InstructionLevel, 0, len(inst)),
	}
	ind.Attendance = append(ind.Attendance, att...)
	ind.YearsOfStudy = append(ind.YearsOfStudy, years...)
	ind.Instruction = append(ind.Instruction, inst...)
	return ind
}
