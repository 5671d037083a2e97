// Package resource implements the configuration engine: it classifies a
// named API operation, validates its parameters against the device
// specification, and executes it with idempotent add/edit/delete/upsert
// semantics. One engine serves every model the device exposes; nothing in
// this package knows about specific object types.
package resource

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// Error message texts the engine keys recovery on. These are the device's
// literal 422 response fragments.
const (
	duplicateNameText = "Validation failed due to a duplicate name"
	invalidUUIDText   = "Validation failed due to an invalid UUID"
)

const (
	msgDuplicateDiffers = "Cannot add new object. An object with the same name but different parameters already exists."
	msgMultipleFound    = "Multiple duplicates found."
	msgMissingReferent  = "Referenced object does not exist"
)

// identityProperties round-trip from an existing object into an edit body
// during upsert recovery.
var identityProperties = []string{"id", "version", "ruleId"}

// Client is the transport the engine drives. *fdm.Session implements it.
type Client interface {
	Send(ctx context.Context, req *fdm.Request) (*fdm.Response, error)
	ForEachItem(ctx context.Context, req *fdm.Request, fn func(map[string]interface{}) error) error
}

// Params is the user-supplied parameter bag for one operation. Filters is
// only consulted for find-all operations.
type Params struct {
	Data        map[string]interface{}
	PathParams  map[string]interface{}
	QueryParams map[string]interface{}
	Filters     map[string]interface{}
}

// Result is the uniform outcome of an executed operation.
type Result struct {
	Changed  bool
	Response map[string]interface{}
}

// Engine executes operations against one device with idempotence applied.
type Engine struct {
	client    Client
	index     *swagger.SpecIndex
	validator *swagger.Validator
	checkMode bool
}

// NewEngine builds an engine over a parsed device specification.
func NewEngine(client Client, index *swagger.SpecIndex) *Engine {
	return &Engine{
		client:    client,
		index:     index,
		validator: swagger.NewValidator(index),
	}
}

// SetCheckMode toggles dry-run behavior: with check mode on, validation and
// reads still happen but every mutation is suppressed with ErrCheckMode.
func (e *Engine) SetCheckMode(on bool) {
	e.checkMode = on
}

// Execute runs one operation by ID. Add, edit, delete and upsert get
// idempotent semantics; find-all with filters becomes a client-side
// filtered listing; everything else is dispatched as-is.
func (e *Engine) Execute(ctx context.Context, operationID string, p *Params) (*Result, error) {
	if p == nil {
		p = &Params{}
	}
	if swagger.IsUpsertID(operationID) {
		return e.upsert(ctx, operationID, p)
	}

	op := e.index.Operation(operationID)
	if op == nil {
		return nil, util.NewInvalidOperationError(operationID, "")
	}
	if err := e.validate(op, p); err != nil {
		return nil, err
	}

	log := util.WithOperation(operationID)
	switch {
	case swagger.IsAdd(op):
		log.Debug("executing add operation")
		return e.add(ctx, op, p)
	case swagger.IsEdit(op):
		log.Debug("executing edit operation")
		return e.edit(ctx, op, p)
	case swagger.IsDelete(op):
		log.Debug("executing delete operation")
		return e.delete(ctx, op, p)
	case swagger.IsFindAll(op) && len(p.Filters) > 0:
		log.Debug("executing filtered find operation")
		return e.findByFilter(ctx, op, p)
	default:
		log.Debug("executing general operation")
		return e.general(ctx, op, p)
	}
}

// validate checks the body against the operation's model and the query and
// path parameters against its parameter specs, merging all findings into
// one report.
func (e *Engine) validate(op *swagger.Operation, p *Params) error {
	merged := &util.ValidationReport{}

	for _, check := range []func() (*util.ValidationReport, error){
		func() (*util.ValidationReport, error) { return e.validator.ValidateData(op.ID, p.Data) },
		func() (*util.ValidationReport, error) { return e.validator.ValidateQueryParams(op.ID, p.QueryParams) },
		func() (*util.ValidationReport, error) { return e.validator.ValidatePathParams(op.ID, p.PathParams) },
	} {
		report, err := check()
		if err != nil {
			return err
		}
		merged.Required = append(merged.Required, report.Required...)
		merged.InvalidType = append(merged.InvalidType, report.InvalidType...)
	}

	if !merged.Valid() {
		return util.NewValidationError(op.ID, merged)
	}
	return nil
}

func (e *Engine) add(ctx context.Context, op *swagger.Operation, p *Params) (*Result, error) {
	if e.checkMode {
		return nil, util.ErrCheckMode
	}
	resp, err := e.client.Send(ctx, e.request(op, p))
	if err != nil {
		return nil, err
	}
	if resp.Success {
		return &Result{Changed: true, Response: resp.Body}, nil
	}
	if resp.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(resp.Raw, []byte(duplicateNameText)) {
		return e.recoverDuplicate(ctx, op, p, resp)
	}
	return nil, util.NewServerError(resp.StatusCode, resp.Body)
}

// recoverDuplicate handles the device's duplicate-name 422: the object is
// re-read by name and compared against the request. When the lookup cannot
// identify a single existing object, the original server error is
// preserved so the caller sees the device's own diagnosis.
func (e *Engine) recoverDuplicate(ctx context.Context, op *swagger.Operation, p *Params, orig *fdm.Response) (*Result, error) {
	serverErr := util.NewServerError(orig.StatusCode, orig.Body)

	listOp := e.index.FindOperation(op.ModelName, swagger.IsFindAll)
	if listOp == nil {
		return nil, serverErr
	}
	name, _ := p.Data["name"].(string)
	if name == "" {
		return nil, serverErr
	}

	matches, err := e.findAllByName(ctx, listOp, name, p.PathParams)
	if err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		// The lookup filtered the name back out; the device's 422 is the
		// best diagnosis available.
		return nil, serverErr
	case len(matches) > 1:
		return nil, util.NewConfigurationError(msgMultipleFound)
	}

	existing := matches[0]
	if EqualObjects(p.Data, existing) {
		return &Result{Changed: false, Response: existing}, nil
	}
	return nil, &util.ConfigurationError{Msg: msgDuplicateDiffers, Existing: existing}
}

func (e *Engine) edit(ctx context.Context, op *swagger.Operation, p *Params) (*Result, error) {
	read, err := e.client.Send(ctx, &fdm.Request{
		Method:     http.MethodGet,
		URL:        op.URL,
		PathParams: p.PathParams,
	})
	if err != nil {
		return nil, err
	}
	if !read.Success {
		if read.StatusCode == http.StatusNotFound ||
			(read.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(read.Raw, []byte(invalidUUIDText))) {
			return nil, util.NewConfigurationError(msgMissingReferent)
		}
		return nil, util.NewServerError(read.StatusCode, read.Body)
	}
	if EqualObjects(read.Body, p.Data) {
		return &Result{Changed: false, Response: read.Body}, nil
	}

	if e.checkMode {
		return nil, util.ErrCheckMode
	}
	resp, err := e.client.Send(ctx, e.request(op, p))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, util.NewServerError(resp.StatusCode, resp.Body)
	}
	return &Result{Changed: true, Response: resp.Body}, nil
}

func (e *Engine) delete(ctx context.Context, op *swagger.Operation, p *Params) (*Result, error) {
	if e.checkMode {
		return nil, util.ErrCheckMode
	}
	resp, err := e.client.Send(ctx, e.request(op, p))
	if err != nil {
		return nil, err
	}
	if resp.Success {
		return &Result{Changed: true, Response: resp.Body}, nil
	}
	if resp.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(resp.Raw, []byte(invalidUUIDText)) {
		// Already absent.
		return &Result{
			Changed:  false,
			Response: map[string]interface{}{"status": msgMissingReferent},
		}, nil
	}
	return nil, util.NewServerError(resp.StatusCode, resp.Body)
}

func (e *Engine) general(ctx context.Context, op *swagger.Operation, p *Params) (*Result, error) {
	mutating := op.Method != http.MethodGet
	if e.checkMode && mutating {
		return nil, util.ErrCheckMode
	}
	resp, err := e.client.Send(ctx, e.request(op, p))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, util.NewServerError(resp.StatusCode, resp.Body)
	}
	return &Result{Changed: mutating, Response: resp.Body}, nil
}

// upsert creates the object when absent and edits it in place when a
// name-duplicate with different contents exists.
func (e *Engine) upsert(ctx context.Context, operationID string, p *Params) (*Result, error) {
	addOp := e.index.Operation(swagger.AddOperationID(operationID))
	if addOp == nil || !e.index.UpsertSupported(addOp.ModelName) {
		return nil, util.NewInvalidOperationError(operationID, "upsert is not supported for this object type")
	}
	if err := e.validate(addOp, p); err != nil {
		return nil, err
	}

	result, err := e.add(ctx, addOp, p)
	var confErr *util.ConfigurationError
	if !errors.As(err, &confErr) || confErr.Existing == nil {
		return result, err
	}

	editOp := e.index.FindOperation(addOp.ModelName, swagger.IsEdit)
	if editOp == nil {
		return nil, err
	}
	return e.edit(ctx, editOp, paramsForRecoveredEdit(p, confErr.Existing))
}

// paramsForRecoveredEdit rebuilds the parameter bag for the edit leg of an
// upsert: identity properties of the existing object are copied into the
// body and objId is pointed at it. The caller's maps are left untouched.
func paramsForRecoveredEdit(p *Params, existing map[string]interface{}) *Params {
	data := make(map[string]interface{}, len(p.Data)+len(identityProperties))
	for k, v := range p.Data {
		data[k] = v
	}
	for _, prop := range identityProperties {
		if v, ok := existing[prop]; ok {
			data[prop] = v
		}
	}

	pathParams := make(map[string]interface{}, len(p.PathParams)+1)
	for k, v := range p.PathParams {
		pathParams[k] = v
	}
	pathParams["objId"] = existing["id"]

	return &Params{
		Data:        data,
		PathParams:  pathParams,
		QueryParams: p.QueryParams,
		Filters:     p.Filters,
	}
}

func (e *Engine) request(op *swagger.Operation, p *Params) *fdm.Request {
	return &fdm.Request{
		Method:      op.Method,
		URL:         op.URL,
		Body:        p.Data,
		PathParams:  p.PathParams,
		QueryParams: p.QueryParams,
	}
}
