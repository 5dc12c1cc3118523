package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

const reportFlushEvery = 64

var ReportHeader = []string{"id", "createdAt", "burgers"}

type ReportService struct {
	orders OrderStore
	log    *zap.Logger
}

func NewReportService(orders OrderStore, log *zap.Logger) *ReportService {
	log = logger.OrNop(log)
	return &ReportService{orders: orders, log: log}
}

// Stream writes matching orders to w as CSV, one order in memory at a time.
// The cursor is always closed, and so is w when it is an io.Closer. A failed
// stream may already have delivered some rows.
func (s *ReportService) Stream(ctx context.Context, f model.FilterCriteria, w io.Writer) (err error) {
	const op = "stream order report"

	if c, ok := w.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = &TechnicalError{Op: op, Stage: StageStream, Err: cerr}
			}
		}()
	}

	cur, err := s.orders.StreamByFilter(ctx, f)
	if err != nil {
		return &TechnicalError{Op: op, Stage: StageInit, Err: err}
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil {
			s.log.Warn("failed to close report cursor", zap.Error(cerr))
		}
	}()

	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return &TechnicalError{Op: op, Stage: StageInit, Err: err}
	}

	rows := 0
	for cur.Next() {
		if err := ctx.Err(); err != nil {
			return s.fail(op, rows, err)
		}
		if err := cw.Write(reportRow(cur.Order())); err != nil {
			return s.fail(op, rows, err)
		}
		rows++
		if rows%reportFlushEvery == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return s.fail(op, rows, err)
			}
		}
	}
	if err := cur.Err(); err != nil {
		return s.fail(op, rows, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return s.fail(op, rows, err)
	}
	s.log.Debug("order report streamed", zap.Int("rows", rows))
	return nil
}

func (s *ReportService) fail(op string, rows int, err error) error {
	stage := StageStream
	if rows == 0 {
		stage = StageInit
	}
	s.log.Error("order report failed", zap.String("stage", string(stage)), zap.Int("rows_written", rows), zap.Error(err))
	return &TechnicalError{Op: op, Stage: stage, Err: err}
}

func reportRow(o model.Order) []string {
	return []string{
		strconv.FormatInt(o.ID, 10),
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.BurgerSummary(),
	}
}
