// Package auditlog appends trade records to a flat CSV file.
//
// The file is append-only with a fixed header; prior entries are never
// rewritten or deleted. The dashboard performs full-file reads while the
// trading loop appends, which is safe because every append is a single
// buffered write of one complete line.
package auditlog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// header order is a fixed external contract, do not reorder.
var header = []string{"timestamp", "symbol", "side", "qty", "status", "filled_avg_price", "reason", "confidence"}

// Log is an append-only CSV trade log.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates a log backed by the given file path.
func NewLog(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("audit log path is required")
	}
	return &Log{path: path}, nil
}

// Append writes one record, creating the file and header on first use.
func (l *Log) Append(rec domain.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat audit log")
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return errors.Wrap(err, "write audit log header")
		}
	}

	if err := w.Write(marshalRecord(rec)); err != nil {
		return errors.Wrap(err, "write audit log record")
	}

	w.Flush()
	return errors.Wrap(w.Error(), "flush audit log")
}

// ReadAll returns every record in the log in append order.
// A missing file yields an empty slice.
func (l *Log) ReadAll() ([]domain.TradeRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var records []domain.TradeRecord
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read audit log")
		}
		if first {
			first = false
			continue // header row
		}

		rec, err := unmarshalRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func marshalRecord(rec domain.TradeRecord) []string {
	return []string{
		rec.Timestamp.Format(time.RFC3339),
		rec.Symbol,
		string(rec.Side),
		rec.Qty.String(),
		rec.Status,
		rec.FilledAvgPrice,
		rec.Reason,
		strconv.FormatFloat(rec.Confidence, 'f', 6, 64),
	}
}

func unmarshalRecord(row []string) (domain.TradeRecord, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "parse audit log timestamp")
	}

	qty, err := decimal.NewFromString(row[3])
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "parse audit log qty")
	}

	confidence, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "parse audit log confidence")
	}

	return domain.TradeRecord{
		Timestamp:      ts,
		Symbol:         row[1],
		Side:           domain.Side(row[2]),
		Qty:            qty,
		Status:         row[4],
		FilledAvgPrice: row[5],
		Reason:         row[6],
		Confidence:     confidence,
	}, nil
}
