package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sjsage522/pricetracker/internal/market"
	"sjsage522/pricetracker/logger"
)

// namePrefix marks the line holding the product's display name
const namePrefix = "# product: "

// CSVStore keeps one CSV file per product in a directory
type CSVStore struct {
	dir string
}

// NewCSVStore creates a CSV store rooted at dir, creating it if needed
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &CSVStore{dir: dir}, nil
}

// Path returns the file holding the series stored under key
func (s *CSVStore) Path(key string) string {
	return filepath.Join(s.dir, key+".csv")
}

// Load reads the series stored under key
func (s *CSVStore) Load(ctx context.Context, key string) (market.Series, error) {
	series := market.Series{Key: key}
	if err := ctx.Err(); err != nil {
		return series, err
	}

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return series, nil
	}
	if err != nil {
		return series, fmt.Errorf("failed to read %s: %w", s.Path(key), err)
	}

	name, body := splitName(data)
	series.Name = name

	reader := csv.NewReader(bytes.NewReader(body))
	// Older files may carry fewer columns
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return series, nil
	}
	if err != nil {
		return series, fmt.Errorf("failed to read header of %s: %w", key, err)
	}

	for line := 2; ; line++ {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return series, fmt.Errorf("failed to read %s line %d: %w", key, line, err)
		}

		row := make(Row, len(header))
		for i, column := range header {
			if i < len(values) {
				row[strings.TrimSpace(column)] = values[i]
			}
		}

		record, err := DecodeRecord(row, name)
		if err != nil {
			return series, fmt.Errorf("%s line %d: %w", key, line, err)
		}
		series.Records = append(series.Records, record)
	}

	return series, nil
}

// Append adds record to the file under key. The whole file is rewritten
// to a temporary file and renamed over the original.
func (s *CSVStore) Append(ctx context.Context, key string, record market.Record) error {
	series, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	series.Append(record)

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeSeries(tmp, series); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path(key), err)
	}

	logger.ForStore().Debug().Str("key", key).Int("records", series.Len()).Msg("Series written")
	return nil
}

// Close implements Store
func (s *CSVStore) Close() error {
	return nil
}

func writeSeries(w io.Writer, series market.Series) error {
	buf := bufio.NewWriter(w)
	if series.Name != "" {
		if _, err := fmt.Fprintf(buf, "%s%s\n", namePrefix, strings.ReplaceAll(series.Name, "\n", " ")); err != nil {
			return err
		}
	}

	writer := csv.NewWriter(buf)
	if err := writer.Write(market.Columns); err != nil {
		return err
	}
	for _, record := range series.Records {
		if err := writer.Write(EncodeRecord(record).Values()); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// splitName separates the optional name line from the CSV body
func splitName(data []byte) (string, []byte) {
	if !bytes.HasPrefix(data, []byte(namePrefix)) {
		return "", data
	}
	line, rest, _ := bytes.Cut(data, []byte("\n"))
	name := strings.TrimSpace(strings.TrimPrefix(string(line), namePrefix))
	return name, rest
}
