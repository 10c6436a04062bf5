package dataset

import (
	_ "embed"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/schoolmesh/bulletin"
	"github.com/hupe1980/schoolmesh/core"
)

//go:embed sample.yaml
var sample []byte

// DateLayout is the layout of bulletin dates in data files.
const DateLayout = "2006-01-02"

// File is the on-disk layout of a data file.
type File struct {
	Household HouseholdSpec  `yaml:"household" validate:"required"`
	Bulletins []BulletinSpec `yaml:"bulletins" validate:"dive"`
}

// HouseholdSpec describes the guardian and their children.
type HouseholdSpec struct {
	ID       string      `yaml:"id" validate:"required"`
	Name     string      `yaml:"name" validate:"required"`
	Children []ChildSpec `yaml:"children" validate:"dive"`
}

// ChildSpec describes one dependent.
type ChildSpec struct {
	ID         string   `yaml:"id" validate:"required"`
	Name       string   `yaml:"name" validate:"required"`
	Grade      int      `yaml:"grade" validate:"min=0,max=12"`
	Activities []string `yaml:"activities" validate:"dive,required"`
}

// BulletinSpec describes one event or announcement.
type BulletinSpec struct {
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind" validate:"required,bulletin_kind"`
	Title  string `yaml:"title" validate:"required"`
	Body   string `yaml:"body"`
	Date   string `yaml:"date" validate:"required,datetime=2006-01-02"`
	Grades []int  `yaml:"grades" validate:"dive,min=0,max=12"`
}

// Dataset is a loaded data file.
type Dataset struct {
	Household core.Household
	Board     *bulletin.InMemoryStore
}

// Default returns the embedded sample data.
func Default() (*Dataset, error) {
	ds, err := Parse(sample)
	if err != nil {
		return nil, errors.Wrap(err, "embedded sample")
	}
	return ds, nil
}

// Load reads and parses the data file at path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read data file %s", path)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "data file %s", path)
	}
	return ds, nil
}

// Parse decodes and validates YAML data.
func Parse(data []byte) (*Dataset, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if err := newValidator().Struct(f); err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	deps := make([]core.Dependent, 0, len(f.Household.Children))
	for _, c := range f.Household.Children {
		deps = append(deps, core.Dependent{ID: c.ID, Name: c.Name, GradeLevel: c.Grade, Activities: c.Activities})
	}
	household := core.NewHousehold(f.Household.ID, f.Household.Name, deps...)
	if err := household.Validate(); err != nil {
		return nil, errors.Wrap(err, "household")
	}

	bulletins := make([]core.Bulletin, 0, len(f.Bulletins))
	for i, b := range f.Bulletins {
		date, err := time.Parse(DateLayout, b.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "bulletin %d date", i)
		}
		bulletins = append(bulletins, core.Bulletin{
			ID:          b.ID,
			Kind:        core.BulletinKind(b.Kind),
			Title:       b.Title,
			Body:        b.Body,
			Date:        date,
			GradeLevels: b.Grades,
		})
	}
	board, err := bulletin.NewInMemoryStore(bulletins...)
	if err != nil {
		return nil, errors.Wrap(err, "bulletins")
	}

	return &Dataset{Household: household, Board: board}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bulletin_kind", validKind)
	return v
}

func validKind(fl validator.FieldLevel) bool {
	switch core.BulletinKind(fl.Field().String()) {
	case core.BulletinEvent, core.BulletinAnnouncement:
		return true
	}
	return false
}
