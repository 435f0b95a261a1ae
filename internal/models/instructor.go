package models

type Instructor struct {
	Name        string   `json:"name" yaml:"name"`
	Specialties []string `json:"specialties" yaml:"specialties"`
	SortOrder   int64    `json:"sort_order" yaml:"sort_order"`
}

func (i *Instructor) CanTeach(activity string) bool {
	for _, s := range i.Specialties {
		if s == activity {
			return true
		}
	}
	return false
}
