package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Repository defines the workbook operations the planner needs.
type Repository interface {
	ReadTable(ctx context.Context, name, sheetRange string) (models.Table, error)
	ReplaceRange(ctx context.Context, sheetRange string, values [][]interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra client options (endpoint, HTTP client) are appended after the
// credentials.
func NewGoogleSheetRepository(ctx context.Context, credentialsPath, spreadsheetID string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if credentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

// ReadTable fetches a range whose first row is the header.
func (r *GoogleSheetRepository) ReadTable(ctx context.Context, name, sheetRange string) (models.Table, error) {
	if sheetRange == "" {
		return models.Table{}, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return models.Table{}, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	if len(resp.Values) == 0 {
		r.logger.Debug("empty sheet range", zap.String("range", sheetRange))
		return models.Table{Name: name}, nil
	}

	header := stringify(resp.Values[0])
	records := make([][]string, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		records = append(records, stringify(row))
	}

	table := models.NewTable(name, header, records)
	r.logger.Debug("sheet range loaded", zap.String("range", sheetRange), zap.Int("rows", len(table.Rows)))
	return table, nil
}

// ReplaceRange clears the whole tab named by sheetRange and writes values
// starting at the range's anchor.
func (r *GoogleSheetRepository) ReplaceRange(ctx context.Context, sheetRange string, values [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	tab := sheetTab(sheetRange)
	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, tab, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", tab, err)
	}

	payload := &sheetsapi.ValueRange{Values: values}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("write range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range replaced", zap.String("range", sheetRange), zap.Int("rows", len(values)))
	return nil
}

func sheetTab(sheetRange string) string {
	if idx := strings.LastIndex(sheetRange, "!"); idx >= 0 {
		return sheetRange[:idx]
	}
	return sheetRange
}

func stringify(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
