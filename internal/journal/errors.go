package journal

import "errors"

// ErrSchemaCreation indicates the bookkeeping schema or tables could not be created.
var ErrSchemaCreation = errors.New("creating bookkeeping tables")

// ErrCorruptJournal indicates a stored journal row could not be decoded.
var ErrCorruptJournal = errors.New("corrupt journal entries")

// ErrCorruptSnapshot indicates a stored snapshot could not be decoded.
var ErrCorruptSnapshot = errors.New("corrupt stored snapshot")
