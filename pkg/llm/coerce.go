package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaCoercion is returned when oracle payload can't be turned into the expected type
var ErrSchemaCoercion = errors.New("schema coercion failed")

// CoercionError describes a failed coercion into Target type
type CoercionError struct {
	Target string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSchemaCoercion, e.Target, e.Err)
}

// Unwrap allows errors.Is for both ErrSchemaCoercion and the underlying error
func (e *CoercionError) Unwrap() []error { return []error{ErrSchemaCoercion, e.Err} }

// Oracle is a single structured call to the llm service
type Oracle interface {
	Call(ctx context.Context, req Request) (any, error)
}

type validator interface {
	Validate() error
}

// Coerce builds typed value from a loosely typed oracle payload. Payload already of type T is taken as is,
// anything else goes through json round trip. Types implementing Validate() error are validated.
func Coerce[T any](payload any) (T, error) {
	var res T
	target := fmt.Sprintf("%T", res)
	if payload == nil {
		return res, &CoercionError{Target: target, Err: errors.New("empty payload")}
	}

	if typed, ok := payload.(T); ok {
		res = typed
	} else {
		data, err := json.Marshal(payload)
		if err != nil {
			return res, &CoercionError{Target: target, Err: err}
		}
		if err := json.Unmarshal(data, &res); err != nil {
			return res, &CoercionError{Target: target, Err: err}
		}
	}

	if v, ok := any(&res).(validator); ok {
		if err := v.Validate(); err != nil {
			return res, &CoercionError{Target: target, Err: err}
		}
	}
	return res, nil
}

// Ask calls the oracle and coerces its answer into T
func Ask[T any](ctx context.Context, oracle Oracle, req Request) (T, error) {
	payload, err := oracle.Call(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Coerce[T](payload)
}
