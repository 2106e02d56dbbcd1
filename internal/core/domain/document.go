package domain

// Document is one viewable curriculum file listed in the catalog.
type Document struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Subject     string `json:"subject" yaml:"subject"`
	Grade       string `json:"grade" yaml:"grade"`
	File        string `json:"file,omitempty" yaml:"file"`
	IframeURL   string `json:"iframeUrl,omitempty" yaml:"iframe_url"`
	Size        string `json:"size,omitempty" yaml:"size"`
	UploadDate  string `json:"uploadDate,omitempty" yaml:"upload_date"`
	Thumbnail   string `json:"thumbnail,omitempty" yaml:"thumbnail"`
	GradeSlug   string `json:"gradeSlug,omitempty" yaml:"-"`
	SubjectSlug string `json:"subjectSlug,omitempty" yaml:"-"`
}

// Identity is the key analyses and chat history are scoped to.
func (d Document) Identity() string {
	return d.Name + "-" + d.File
}

type Subject struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Grade struct {
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Subjects []Subject `json:"subjects"`
}

// FindSubject returns the subject with the given slug.
func (g Grade) FindSubject(slug string) (Subject, bool) {
	for _, s := range g.Subjects {
		if s.Slug == slug {
			return s, true
		}
	}
	return Subject{}, false
}
