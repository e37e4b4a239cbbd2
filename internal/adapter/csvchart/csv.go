// Package csvchart reads and writes the chart of accounts as CSV.
package csvchart

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iho/gobooks/internal/domain"
)

const (
	numFields   = 7
	colCode     = 0
	colName     = 1
	colType     = 2
	colCategory = 3
	colParent   = 4
	colActive   = 5
	colDesc     = 6
)

var header = []string{"code", "name", "type", "category", "parent_code", "active", "description"}

// ReadAccounts reads a chart of accounts. The first row is the header.
func ReadAccounts(r io.Reader) ([]domain.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []domain.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart of accounts with a header row.
func WriteAccounts(w io.Writer, accounts []*domain.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct *domain.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCategory] = string(acct.Category)
	row[colParent] = acct.ParentCode
	row[colActive] = strconv.FormatBool(acct.Active)
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account. An empty active
// column means active.
func UnmarshalAccount(record []string) (domain.Account, error) {
	if len(record) != numFields {
		return domain.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if err := domain.ValidateAccountCode(code); err != nil {
		return domain.Account{}, err
	}

	active := true
	if v := strings.TrimSpace(record[colActive]); v != "" {
		var err error
		active, err = strconv.ParseBool(v)
		if err != nil {
			return domain.Account{}, fmt.Errorf("parsing active %q: %w", v, err)
		}
	}

	typ := domain.AccountType(strings.ToLower(strings.TrimSpace(record[colType])))
	if !typ.IsValid() {
		return domain.Account{}, fmt.Errorf("%w: %q", domain.ErrInvalidAccountType, record[colType])
	}

	return domain.Account{
		Code:        code,
		Name:        strings.TrimSpace(record[colName]),
		Type:        typ,
		Category:    domain.AccountCategory(strings.ToLower(strings.TrimSpace(record[colCategory]))),
		ParentCode:  strings.TrimSpace(record[colParent]),
		Description: record[colDesc],
		Active:      active,
	}, nil
}

// WriteTrialBalance writes a trial balance, one account per row plus a
// totals row.
func WriteTrialBalance(w io.Writer, tb *domain.TrialBalance) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"code", "name", "type", "debit", "credit"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, l := range tb.Lines {
		if err := cw.Write([]string{l.Code, l.Name, string(l.Type), l.Debit.StringFixed(2), l.Credit.StringFixed(2)}); err != nil {
			return fmt.Errorf("writing %s: %w", l.Code, err)
		}
	}
	if err := cw.Write([]string{"", "Total", "", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2)}); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
