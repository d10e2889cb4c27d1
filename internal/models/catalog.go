package models

// Levels lists the Moroccan school levels supported by the platform,
// ordered from primary through baccalaureate.
var Levels = []string{
	"1AP", "2AP", "3AP", "4AP", "5AP", "6AP",
	"1AC", "2AC", "3AC",
	"Tronc Commun", "1BAC", "2BAC",
}

// Subjects lists the subjects a center can open classes for.
var Subjects = []string{
	"Maths", "Physics", "PC", "SVT",
	"Anglais", "Français", "Arabe", "Philo", "H-G",
}

// ValidLevel reports whether the level is part of the supported vocabulary.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// ValidSubject reports whether the subject is part of the supported vocabulary.
func ValidSubject(subject string) bool {
	for _, s := range Subjects {
		if s == subject {
			return true
		}
	}
	return false
}
