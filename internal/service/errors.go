package service

import (
	"errors"
	"fmt"

	"github.com/IlliaFransua/burger-order-api/internal/store"
)

var (
	ErrNotFound     = store.ErrNotFound
	ErrDuplicate    = store.ErrDuplicate
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrTechnical    = errors.New("technical failure")
)

type Stage string

const (
	StageInit   Stage = "init"
	StageStream Stage = "stream"
)

// TechnicalError records where a streaming operation broke. Callers only
// see ErrTechnical; the stage is for logs.
type TechnicalError struct {
	Op    string
	Stage Stage
	Err   error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Stage, e.Err)
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func (e *TechnicalError) Is(target error) bool { return target == ErrTechnical }
