package scoring

import "speakexam/internal/model"

var cefrDescriptions = map[model.CEFRLevel]string{
	model.CEFRC2: "Proficiency",
	model.CEFRC1: "Advanced",
	model.CEFRB2: "Upper Intermediate",
	model.CEFRB1: "Intermediate",
	model.CEFRA2: "Elementary",
	model.CEFRA1: "Beginner",
}

// CEFR maps a band to its CEFR level
func CEFR(band float64) model.CEFRLevel {
	switch {
	case band >= 9:
		return model.CEFRC2
	case band >= 7:
		return model.CEFRC1
	case band >= 6:
		return model.CEFRB2
	case band >= 5:
		return model.CEFRB1
	case band >= 3:
		return model.CEFRA2
	}
	return model.CEFRA1
}

// CEFRDescription names a CEFR level
func CEFRDescription(level model.CEFRLevel) string {
	if d, ok := cefrDescriptions[level]; ok {
		return d
	}
	return "Unknown"
}
