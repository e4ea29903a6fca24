// Package history keeps undo and redo stacks of document edits.
package history

import (
	"errors"
)

// ErrEmpty is returned by Undo and Redo when there is nothing to apply.
var ErrEmpty = errors.New("history: nothing to apply")

// Text is the editable surface history replays edits on. Offsets are
// byte offsets.
type Text interface {
	Insert(off int, s string) error
	Delete(start, end int) error
}

// OpType represents the type of an edit operation.
type OpType int

const (
	InsertOp OpType = iota
	DeleteOp
)

// Operation captures a single edit. Pos is a byte offset; Text is the
// inserted or deleted text.
type Operation struct {
	Type OpType
	Pos  int
	Text string
}

// History keeps stacks of past and future operations.
type History struct {
	past   []Operation
	future []Operation
}

// New creates an empty History.
func New() *History { return &History{} }

// RecordInsert records an insertion at pos.
func (h *History) RecordInsert(pos int, text string) {
	h.record(Operation{Type: InsertOp, Pos: pos, Text: text})
}

// RecordDelete records a deletion at pos of the given text.
func (h *History) RecordDelete(pos int, text string) {
	h.record(Operation{Type: DeleteOp, Pos: pos, Text: text})
}

func (h *History) record(op Operation) {
	if op.Text == "" {
		return
	}
	h.past = append(h.past, op)
	h.future = nil
}

// CanUndo reports whether there is an operation to undo.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether there is an operation to redo.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Undo applies the inverse of the last operation to t and moves cursor.
func (h *History) Undo(t Text, cursor *int) error {
	if !h.CanUndo() {
		return ErrEmpty
	}
	op := h.past[len(h.past)-1]
	inverse := op
	if op.Type == InsertOp {
		inverse.Type = DeleteOp
	} else {
		inverse.Type = InsertOp
	}
	if err := apply(t, inverse, cursor); err != nil {
		return err
	}
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, op)
	return nil
}

// Redo reapplies the next operation to t and moves cursor.
func (h *History) Redo(t Text, cursor *int) error {
	if !h.CanRedo() {
		return ErrEmpty
	}
	op := h.future[len(h.future)-1]
	if err := apply(t, op, cursor); err != nil {
		return err
	}
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, op)
	return nil
}

func apply(t Text, op Operation, cursor *int) error {
	n := len(op.Text)
	switch op.Type {
	case InsertOp:
		if err := t.Insert(op.Pos, op.Text); err != nil {
			return err
		}
		if cursor != nil {
			*cursor = op.Pos + n
		}
	case DeleteOp:
		if err := t.Delete(op.Pos, op.Pos+n); err != nil {
			return err
		}
		if cursor != nil {
			*cursor = op.Pos
		}
	default:
		return errors.New("history: unknown op type")
	}
	return nil
}
