// Package catalog serves the static grade/subject/document tree.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type fileSubject struct {
	Name      string            `yaml:"name" validate:"required"`
	Documents []domain.Document `yaml:"documents"`
}

type fileGrade struct {
	Slug     string        `yaml:"slug" validate:"required"`
	Name     string        `yaml:"name" validate:"required"`
	Subjects []fileSubject `yaml:"subjects" validate:"dive"`
}

type fileCatalog struct {
	Grades []fileGrade `yaml:"grades" validate:"required,min=1,dive"`
}

// Catalog is an immutable, indexed view of the catalog file.
type Catalog struct {
	grades  []domain.Grade
	byGrade map[string]domain.Grade
	docs    map[string]map[string][]domain.Document
	byID    map[string]domain.Document
	all     []domain.Document
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var raw fileCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validator.New().Struct(raw); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	c := &Catalog{
		byGrade: make(map[string]domain.Grade, len(raw.Grades)),
		docs:    make(map[string]map[string][]domain.Document, len(raw.Grades)),
		byID:    make(map[string]domain.Document),
	}

	for _, g := range raw.Grades {
		if _, dup := c.byGrade[g.Slug]; dup {
			return nil, fmt.Errorf("validate catalog: duplicate grade %q", g.Slug)
		}
		grade := domain.Grade{Slug: g.Slug, Name: g.Name, Subjects: make([]domain.Subject, 0, len(g.Subjects))}
		bySubject := make(map[string][]domain.Document, len(g.Subjects))

		for _, s := range g.Subjects {
			subject := domain.Subject{Slug: Slugify(s.Name), Name: s.Name}
			if _, dup := bySubject[subject.Slug]; dup {
				return nil, fmt.Errorf("validate catalog: duplicate subject %q in grade %q", subject.Slug, g.Slug)
			}
			grade.Subjects = append(grade.Subjects, subject)

			docs := make([]domain.Document, 0, len(s.Documents))
			for _, doc := range s.Documents {
				if doc.ID == "" || doc.Name == "" {
					return nil, fmt.Errorf("validate catalog: document in %s/%s needs id and name", g.Slug, subject.Slug)
				}
				if _, dup := c.byID[doc.ID]; dup {
					return nil, fmt.Errorf("validate catalog: duplicate document id %q", doc.ID)
				}
				if doc.Subject == "" {
					doc.Subject = s.Name
				}
				if doc.Grade == "" {
					doc.Grade = g.Name
				}
				doc.GradeSlug = g.Slug
				doc.SubjectSlug = subject.Slug

				docs = append(docs, doc)
				c.byID[doc.ID] = doc
				c.all = append(c.all, doc)
			}
			bySubject[subject.Slug] = docs
		}

		c.grades = append(c.grades, grade)
		c.byGrade[g.Slug] = grade
		c.docs[g.Slug] = bySubject
	}

	sort.SliceStable(c.all, func(i, j int) bool { return lessID(c.all[i].ID, c.all[j].ID) })
	return c, nil
}

func (c *Catalog) Grades() []domain.Grade {
	return append([]domain.Grade(nil), c.grades...)
}

func (c *Catalog) Grade(slug string) (domain.Grade, bool) {
	g, ok := c.byGrade[slug]
	return g, ok
}

// ByGradeSubject returns the documents filed under a grade and subject.
// Unknown slugs yield an empty list.
func (c *Catalog) ByGradeSubject(gradeSlug, subjectSlug string) []domain.Document {
	docs := c.docs[gradeSlug][subjectSlug]
	return append([]domain.Document{}, docs...)
}

func (c *Catalog) ByID(id string) (domain.Document, bool) {
	doc, ok := c.byID[id]
	return doc, ok
}

func (c *Catalog) All() []domain.Document {
	return append([]domain.Document{}, c.all...)
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
