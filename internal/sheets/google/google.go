package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/log"
	ports "saldo/internal/sheets"
)

// Options configures a journal client. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// base name without year (e.g. "Journal"); the year of each entry is prefixed.
	sheetBase string
	logger    *log.Logger
}

var (
	_ ports.JournalWriter = (*Client)(nil)
	_ ports.JournalReader = (*Client)(nil)
)

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Journal"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base, logger: logger}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes one journal row to the sheet of the entry's year.
func (c *Client) Append(ctx context.Context, e ports.JournalEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	sheet := yearPrefixedName(c.sheetBase, e.Timestamp.Year())
	vr := &gsheet.ValueRange{Values: [][]interface{}{journalRow(e)}}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("%s!A:I", sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append journal row: %w", err)
	}
	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended journal row",
		log.FieldEventType, e.Event,
		log.FieldOwner, e.Owner,
		"range", ref)
	return ref, nil
}

// ReadJournal returns every row of the given year's sheet, skipping the header.
func (c *Client) ReadJournal(ctx context.Context, year int) ([]ports.JournalEntry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, year)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A:I", sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read journal %q: %w", sheet, err)
	}
	return parseJournalRows(resp.Values), nil
}

var journalHeader = []string{"Timestamp", "Event", "Owner", "Record", "Description", "Amount", "Category", "Date", "Completed"}

func journalRow(e ports.JournalEntry) []interface{} {
	amount := ""
	if e.Amount.Cents != 0 {
		amount = e.Amount.String()
	}
	return []interface{}{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Event,
		e.Owner,
		e.RecordID,
		e.Description,
		amount,
		e.Category,
		e.Date,
		e.Completed,
	}
}

// parseJournalRows converts a values matrix into entries. Rows that cannot be
// read (bad timestamp, header, blank) are skipped.
func parseJournalRows(values [][]interface{}) []ports.JournalEntry {
	out := make([]ports.JournalEntry, 0, len(values))
	for _, raw := range values {
		row := toStrings(raw)
		if len(row) == 0 || safeGet(row, 0) == journalHeader[0] {
			continue
		}
		ts, err := time.Parse(time.RFC3339, safeGet(row, 0))
		if err != nil {
			continue
		}
		e := ports.JournalEntry{
			Timestamp:   ts,
			Event:       safeGet(row, 1),
			Owner:       safeGet(row, 2),
			RecordID:    safeGet(row, 3),
			Description: safeGet(row, 4),
			Category:    safeGet(row, 6),
			Date:        safeGet(row, 7),
			Completed:   safeGet(row, 8),
		}
		if cents, ok := parseAmountToCents(safeGet(row, 5)); ok {
			e.Amount.Cents = cents
		}
		out = append(out, e)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}

// parseAmountToCents reads sheet-formatted amounts such as "1.234,56" or "12.5".
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// A trailing ",dd" is a decimal comma; any dot before it groups thousands.
	if i := strings.LastIndex(s, ","); i >= 0 && i > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		return int64(f*100 - 0.5), true
	}
	return int64(f*100 + 0.5), true
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
