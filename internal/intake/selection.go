package intake

import "fmt"

// Selection is the running list of accepted files in one upload session.
// Adds are cumulative. It is not safe for concurrent use; the session owns it.
type Selection struct {
	files []Candidate
}

// Add appends accepted candidates.
func (s *Selection) Add(files ...Candidate) {
	s.files = append(s.files, files...)
}

// Remove drops the file at index i and reports whether it existed.
func (s *Selection) Remove(i int) bool {
	if i < 0 || i >= len(s.files) {
		return false
	}
	s.files = append(s.files[:i:i], s.files[i+1:]...)
	return true
}

// Files returns a copy of the selection in order.
func (s *Selection) Files() []Candidate {
	return append([]Candidate(nil), s.files...)
}

func (s *Selection) Len() int { return len(s.files) }

func (s *Selection) Clear() { s.files = nil }

// Label summarizes the selection for the upload form.
func (s *Selection) Label() string {
	switch n := len(s.files); n {
	case 0:
		return "No files selected"
	case 1:
		return "1 file selected"
	default:
		return fmt.Sprintf("%d files selected", n)
	}
}
