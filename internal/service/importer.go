package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

// ImportRecord is one entry of an upload.
type ImportRecord struct {
	BurgerIDs []int64 `json:"burgerIds"`
}

type OrderCreator interface {
	Create(ctx context.Context, burgerIDs []int64) (model.Order, error)
}

// StreamError aborts an import. Stats holds what was counted before the
// failure.
type StreamError struct {
	Stats     model.UploadStats
	Err       error
	malformed bool
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("import aborted after %d records: %v", e.Stats.Total, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

func (e *StreamError) Is(target error) bool {
	if e.malformed {
		return target == ErrInvalidInput
	}
	return target == ErrTechnical
}

type Importer struct {
	orders OrderCreator
	log    *zap.Logger
}

func NewImporter(orders OrderCreator, log *zap.Logger) *Importer {
	log = logger.OrNop(log)
	return &Importer{orders: orders, log: log}
}

// Import creates one order per record read from r. The input is either a
// JSON array of records or a sequence of record objects. Records are handled
// in input order and a failing record never stops the batch; a broken
// stream does.
func (im *Importer) Import(ctx context.Context, r io.Reader) (model.UploadStats, error) {
	var stats model.UploadStats

	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, im.abort(stats, err)
	}

	dec := json.NewDecoder(br)
	next := func() (json.RawMessage, bool, error) {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return raw, true, nil
	}

	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return stats, im.abort(stats, err)
		}
		next = func() (json.RawMessage, bool, error) {
			if !dec.More() {
				if _, err := dec.Token(); err != nil {
					return nil, false, unterminated(err)
				}
				return nil, false, nil
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, false, unterminated(err)
			}
			return raw, true, nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, im.abort(stats, err)
		}
		raw, ok, err := next()
		if err != nil {
			return stats, im.abort(stats, err)
		}
		if !ok {
			break
		}

		index := stats.Total
		if err := im.importRecord(ctx, raw); err != nil {
			stats.IncrementFailed()
			im.log.Warn("import record failed", zap.Int("record", index), zap.Error(err))
			continue
		}
		stats.IncrementSuccessful()
	}

	im.log.Info("import finished",
		zap.Int("total", stats.Total),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (im *Importer) importRecord(ctx context.Context, raw json.RawMessage) error {
	var rec ImportRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	_, err := im.orders.Create(ctx, rec.BurgerIDs)
	return err
}

func (im *Importer) abort(stats model.UploadStats, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	malformed := errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errUnexpectedToken)
	im.log.Error("import aborted", zap.Int("records_seen", stats.Total), zap.Error(err))
	return &StreamError{Stats: stats, Err: err, malformed: malformed}
}

var errUnexpectedToken = errors.New("unexpected token")

// unterminated treats running out of input inside an array as a syntax
// problem.
func unterminated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		if b != '[' && b != '{' {
			return b, fmt.Errorf("input starts with %q: %w", b, errUnexpectedToken)
		}
		return b, nil
	}
}
