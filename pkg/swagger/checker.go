package swagger

import (
	"net/http"
	"strings"
)

// Operation semantics are encoded in the operation ID convention plus the
// HTTP method. These predicates let one engine serve every endpoint with no
// per-endpoint code.

// IsAdd reports whether op creates a new object.
func IsAdd(op *Operation) bool {
	return op != nil && strings.HasPrefix(op.ID, "add") && op.Method == http.MethodPost
}

// IsEdit reports whether op updates an existing object.
func IsEdit(op *Operation) bool {
	return op != nil && strings.HasPrefix(op.ID, "edit") && op.Method == http.MethodPut
}

// IsDelete reports whether op removes an object.
func IsDelete(op *Operation) bool {
	return op != nil && strings.HasPrefix(op.ID, "delete") && op.Method == http.MethodDelete
}

// IsFindAll reports whether op lists a collection.
func IsFindAll(op *Operation) bool {
	return op != nil && strings.HasPrefix(op.ID, "get") && strings.HasSuffix(op.ID, "List") && op.Method == http.MethodGet
}

// IsUploadFile reports whether op accepts a file upload: a POST consuming
// multipart/form-data.
func IsUploadFile(op *Operation) bool {
	return op != nil && op.Method == http.MethodPost && op.Multipart
}

// IsDownloadFile reports whether op serves a file download: a GET whose
// success response is raw file content rather than a JSON model.
func IsDownloadFile(op *Operation) bool {
	return op != nil && op.Method == http.MethodGet && op.ModelName == FileModelName
}

// IsUpsertID reports whether the operation ID names a synthetic upsert.
// Upserts never appear in the device spec; they are resolved to the
// underlying add/edit/find trio via AddOperationID.
func IsUpsertID(opID string) bool {
	return strings.HasPrefix(opID, "upsert")
}

// AddOperationID translates an upsert operation ID to the corresponding add
// operation ID ("upsertNetworkObject" -> "addNetworkObject").
func AddOperationID(upsertID string) string {
	return "add" + strings.TrimPrefix(upsertID, "upsert")
}

// OperationsForModel returns every operation bound to the given model.
func (ix *SpecIndex) OperationsForModel(modelName string) map[string]*Operation {
	if modelName == "" {
		return nil
	}
	ops := make(map[string]*Operation)
	for id, op := range ix.Operations {
		if op.ModelName == modelName {
			ops[id] = op
		}
	}
	return ops
}

// UpsertSupported reports whether a model carries the full operation trio an
// upsert needs: at least one add, one edit and one find-all.
func (ix *SpecIndex) UpsertSupported(modelName string) bool {
	var hasAdd, hasEdit, hasFindAll bool
	for _, op := range ix.OperationsForModel(modelName) {
		switch {
		case IsAdd(op):
			hasAdd = true
		case IsEdit(op):
			hasEdit = true
		case IsFindAll(op):
			hasFindAll = true
		}
	}
	return hasAdd && hasEdit && hasFindAll
}

// FindOperation returns the first operation for the model matching pred, or
// nil. Used to locate the edit and find-all halves of an upsert.
func (ix *SpecIndex) FindOperation(modelName string, pred func(*Operation) bool) *Operation {
	for _, op := range ix.OperationsForModel(modelName) {
		if pred(op) {
			return op
		}
	}
	return nil
}
