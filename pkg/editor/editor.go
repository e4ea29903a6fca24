package editor

import (
	"example.com/regexhighlight/pkg/document"
	"example.com/regexhighlight/pkg/history"
)

// DocumentState holds the view state of a single open document.
type DocumentState struct {
	Doc *document.Document
	// Cursor is a byte offset into Doc.
	Cursor  int
	Dirty   bool
	History *history.History
}

// Editor manages multiple documents and the focused document index.
// Only the focused document is visible.
type Editor struct {
	Docs    []*DocumentState
	Current int
}

// New creates an empty Editor.
func New() *Editor {
	return &Editor{}
}

// Add appends a document and makes it the current one.
func (e *Editor) Add(doc *document.Document) *DocumentState {
	ds := &DocumentState{Doc: doc, History: history.New()}
	e.Docs = append(e.Docs, ds)
	e.Current = len(e.Docs) - 1
	return ds
}

// CurrentDoc returns the focused document state, or nil when empty.
func (e *Editor) CurrentDoc() *DocumentState {
	if e.Current >= 0 && e.Current < len(e.Docs) {
		return e.Docs[e.Current]
	}
	return nil
}

// Visible returns the documents currently on screen.
func (e *Editor) Visible() []*document.Document {
	if ds := e.CurrentDoc(); ds != nil {
		return []*document.Document{ds.Doc}
	}
	return nil
}

// Next advances focus to the next document and returns it.
func (e *Editor) Next() *DocumentState {
	if len(e.Docs) == 0 {
		return nil
	}
	e.Current = (e.Current + 1) % len(e.Docs)
	return e.Docs[e.Current]
}

// Prev moves focus to the previous document and returns it.
func (e *Editor) Prev() *DocumentState {
	if len(e.Docs) == 0 {
		return nil
	}
	e.Current = (e.Current - 1 + len(e.Docs)) % len(e.Docs)
	return e.Docs[e.Current]
}

// Find returns the state of the document with key.
func (e *Editor) Find(key string) *DocumentState {
	for _, ds := range e.Docs {
		if ds.Doc.Key == key {
			return ds
		}
	}
	return nil
}

// LoadFile reads a file and adds it as a new document.
func (e *Editor) LoadFile(path, languageID string) (*DocumentState, error) {
	doc, err := document.Load(path, languageID)
	if err != nil {
		return nil, err
	}
	return e.Add(doc), nil
}
