package texlog

// Error is one diagnostic extracted from a compiler or tool log.
type Error struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// Errors is the ordered list of diagnostics handed to the caller.
type Errors []Error

// Insert appends a diagnostic.
func (e *Errors) Insert(line int, description, text string) {
	*e = append(*e, Error{Line: line, Description: description, Text: text})
}

// Clear empties the list, keeping its storage.
func (e *Errors) Clear() {
	*e = (*e)[:0]
}
