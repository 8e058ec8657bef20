package attendee

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"github.com/xuri/excelize/v2"
)

// Load reads attendee names from a .txt (one per line), .csv or .xlsx file.
// Spreadsheets contribute the first column of the first sheet and their first
// row is treated as a header. Names are trimmed; blanks are dropped and
// duplicates kept in order.
func Load(path string) ([]string, error) {
	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		names, err = loadCSV(path)
	case ".xlsx":
		names, err = loadXLSX(path)
	default:
		names, err = loadLines(path)
	}
	if err != nil {
		logger.Error("Failed to read attendee list", logger.LoggerInfo{
			ContextFunction: constant.CtxLoadNames,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeAttendeeSource,
				Message: err.Error(),
				Type:    constant.ErrTypeInput,
			},
			Data: map[string]interface{}{
				constant.DataPath: path,
			},
		})
		return nil, fmt.Errorf("%w: %s %s: %v", certificate.ErrInput, constant.ErrAttendeeSource, path, err)
	}

	if len(names) == 0 {
		logger.Warn(constant.ErrNoAttendees, logger.LoggerInfo{
			ContextFunction: constant.CtxLoadNames,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeNoAttendees,
				Message: constant.ErrNoAttendees,
				Type:    constant.ErrTypeInput,
			},
			Data: map[string]interface{}{
				constant.DataPath: path,
			},
		})
		return nil, fmt.Errorf("%w: %s: %s", certificate.ErrInput, constant.ErrNoAttendees, path)
	}

	logger.Info("Attendee list loaded", logger.LoggerInfo{
		ContextFunction: constant.CtxLoadNames,
		Data: map[string]interface{}{
			constant.DataPath:  path,
			constant.DataCount: len(names),
		},
	})
	return names, nil
}

// Parse reads one name per line from r.
func Parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = appendName(names, scanner.Text())
	}
	return names, scanner.Err()
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var names []string
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if row == 0 || len(record) == 0 {
			continue
		}
		names = appendName(names, record[0])
	}
	return names, nil
}

func loadXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}

	var names []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		names = appendName(names, row[0])
	}
	return names, nil
}

func appendName(names []string, raw string) []string {
	name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if name == "" {
		return names
	}
	return append(names, name)
}
