// Package seed loads the initial roster from YAML or JSON seed files.
//
// A seed file holds either a top-level list of students or a mapping with a
// "students" key:
//
//	students:
//	  - id: s1
//	    name: Ana Gomez
//	    email: ana@example.com
//	    image: /images/ana.jpg
//	    attendance:
//	      - date: 2025-01-10
//	        status: present
//
// Students without an id get a random UUID. When the source is a directory,
// its files are read in path order and their students concatenated.
package seed

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/rollcall/internal/apperr"
	"github.com/starford/rollcall/internal/models"
)

type document struct {
	Students []models.Student `yaml:"students"`
}

// Parse decodes one seed document and validates its students. JSON is
// accepted as it is a subset of YAML.
func Parse(data []byte) (models.Roster, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("seed: decode: %w: %v", apperr.ErrInvalidSeed, err)
	}
	if len(root.Content) == 0 {
		return models.Roster{}, nil
	}

	var students []models.Student
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		if err := root.Content[0].Decode(&students); err != nil {
			return nil, fmt.Errorf("seed: decode students: %w: %v", apperr.ErrInvalidSeed, err)
		}
	case yaml.MappingNode:
		var doc document
		if err := root.Content[0].Decode(&doc); err != nil {
			return nil, fmt.Errorf("seed: decode document: %w: %v", apperr.ErrInvalidSeed, err)
		}
		students = doc.Students
	default:
		return nil, fmt.Errorf("seed: %w: expected a list or a mapping with students", apperr.ErrInvalidSeed)
	}

	r := make(models.Roster, 0, len(students))
	for _, s := range students {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if err := validateStudent(&s); err != nil {
			return nil, fmt.Errorf("seed: student %q: %w: %v", s.ID, apperr.ErrInvalidSeed, err)
		}
		r = append(r, s)
	}
	return r, nil
}

// Merge concatenates rosters and rejects duplicate ids.
func Merge(rosters ...models.Roster) (models.Roster, error) {
	seen := make(map[string]struct{})
	out := models.Roster{}
	for _, r := range rosters {
		for _, s := range r {
			if _, dup := seen[s.ID]; dup {
				return nil, fmt.Errorf("seed: %w: duplicate student id %q", apperr.ErrInvalidSeed, s.ID)
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}

func validateStudent(s *models.Student) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Email, is.EmailFormat),
		validation.Field(&s.Attendance, validation.Each(validation.By(validateRecord))),
	)
}

func validateRecord(value interface{}) error {
	r, ok := value.(models.AttendanceRecord)
	if !ok {
		return fmt.Errorf("unexpected record type %T", value)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&r.Status, validation.Required,
			validation.In(models.StatusPresent, models.StatusLate, models.StatusAbsent)),
	)
}
