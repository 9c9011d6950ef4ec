package domain

import (
	"errors"
	"fmt"
)

// ErrorKind preserva por que uma resolução não produziu dados.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindNetworkFailure   ErrorKind = "network_failure"
	KindNonSuccessStatus ErrorKind = "non_success_status"
	KindEmptyResult      ErrorKind = "empty_result"
	KindMalformedShape   ErrorKind = "malformed_shape"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetworkFailure:
		return ErrNetworkFailure
	case KindNonSuccessStatus:
		return ErrNonSuccessStatus
	case KindEmptyResult:
		return ErrEmptyResult
	case KindMalformedShape:
		return ErrMalformedShape
	}
	return nil
}

// LookupError é retornado pelo cliente de lookup quando não foi possível checar
// (o que é diferente de uma lista vazia com 2xx).
type LookupError struct {
	Kind       ErrorKind
	Resource   string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Kind, e.Resource, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Resource)
}

// Unwrap expõe o sentinela da categoria e a causa original.
func (e *LookupError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf classifica qualquer erro da cadeia de resolução.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Kind
	}
	switch {
	case errors.Is(err, ErrNonSuccessStatus):
		return KindNonSuccessStatus
	case errors.Is(err, ErrMalformedShape):
		return KindMalformedShape
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	}
	return KindNetworkFailure
}
