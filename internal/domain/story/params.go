package story

import "fmt"

type Genre string

const (
	GenreFantasy       Genre = "fantasy"
	GenreAdventure     Genre = "adventure"
	GenreSciFi         Genre = "scifi"
	GenreMystery       Genre = "mystery"
	GenreBedtime       Genre = "bedtime"
	GenreEducational   Genre = "educational"
	GenreFolklore      Genre = "folklore"
	GenreHorror        Genre = "horror"
	GenreThriller      Genre = "thriller"
	GenreRomance       Genre = "romance"
	GenreDrama         Genre = "drama"
	GenreCrime         Genre = "crime"
	GenrePsychological Genre = "psychological"
	GenreHistorical    Genre = "historical"
	GenreAdultRomance  Genre = "adult-romance"
)

var genres = []Genre{
	GenreFantasy, GenreAdventure, GenreSciFi, GenreMystery, GenreBedtime,
	GenreEducational, GenreFolklore, GenreHorror, GenreThriller, GenreRomance,
	GenreDrama, GenreCrime, GenrePsychological, GenreHistorical, GenreAdultRomance,
}

func (g Genre) String() string {
	return string(g)
}

// Genres lists every supported genre.
func Genres() []Genre {
	return append([]Genre(nil), genres...)
}

// ParseGenre validates a genre name.
func ParseGenre(s string) (Genre, error) {
	for _, g := range genres {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown genre %q", s)
}

type AgeGroup string

const (
	AgeToddler AgeGroup = "3-5"
	AgeChild   AgeGroup = "6-9"
	AgePreteen AgeGroup = "10-13"
	AgeTeen    AgeGroup = "14-17"
	AgeAdult   AgeGroup = "18+"
)

var ageGroups = []AgeGroup{AgeToddler, AgeChild, AgePreteen, AgeTeen, AgeAdult}

func (a AgeGroup) String() string {
	return string(a)
}

// ParseAgeGroup validates an age group.
func ParseAgeGroup(s string) (AgeGroup, error) {
	for _, a := range ageGroups {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown age group %q", s)
}

// Length is a target story length tier, 1 (shortest) to 5.
type Length int

const (
	LengthShort Length = iota + 1
	LengthMedium
	LengthLong
	LengthVeryLong
	LengthEpic
)

// Words returns the approximate word target of the tier.
func (l Length) Words() int {
	switch l {
	case LengthMedium:
		return 5000
	case LengthLong:
		return 10000
	case LengthVeryLong:
		return 15000
	case LengthEpic:
		return 20000
	default:
		return 1000
	}
}

// Valid reports whether l is one of the known tiers.
func (l Length) Valid() bool {
	return l >= LengthShort && l <= LengthEpic
}

// Params describes a story generation request.
type Params struct {
	Prompt        string
	Genre         Genre
	AgeGroup      AgeGroup
	Length        Length
	CharacterName string
	Language      string
}
