package storage

// Group is a user's saved study group. ID is the dekanat numeric group
// identifier when it is known; requests fall back to the name otherwise.
type Group struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Setting keys. Each key maps to one JSON document per user.
const (
	KeyGroup          = "group"
	KeySubjects       = "subjects"
	KeySubjectCatalog = "subject_catalog"
)
