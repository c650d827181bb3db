package masavfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one decoded detail record.
type Payment struct {
	BankCode      string
	BranchCode    string
	AccountNumber string
	BeneficiaryID string
	Name          string
	Amount        decimal.Decimal
}

// Decoded is the parsed content of a MASAV file. Decode verifies the trailer
// totals against the detail records, so a Decoded value is internally
// consistent.
type Decoded struct {
	InstitutionID   string
	InstitutionName string
	PaymentDate     time.Time
	CreationDate    time.Time
	SequenceNumber  int
	Encoding        HebrewCode
	Payments        []Payment
	TotalAmount     decimal.Decimal
}

// Decode parses a MASAV file. The Hebrew code is detected from the record
// bytes.
func Decode(content []byte) (*Decoded, error) {
	records, err := splitRecords(content)
	if err != nil {
		return nil, err
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("file has %d records, want header, trailer and end marker at least", len(records))
	}

	last := records[len(records)-1]
	if !bytes.Equal(last, bytes.Repeat([]byte{'9'}, recordLen)) {
		return nil, fmt.Errorf("missing end-of-file marker")
	}

	code := DetectCode(content)
	decoded := &Decoded{Encoding: code, TotalAmount: decimal.Zero}

	if err := decoded.parseHeader(records[0], code); err != nil {
		return nil, err
	}

	trailer := records[len(records)-2]
	for i, record := range records[1 : len(records)-2] {
		payment, err := parseDetail(record, code)
		if err != nil {
			return nil, fmt.Errorf("detail record %d: %w", i+1, err)
		}
		decoded.Payments = append(decoded.Payments, *payment)
		decoded.TotalAmount = decoded.TotalAmount.Add(payment.Amount)
	}

	if err := decoded.verifyTrailer(trailer); err != nil {
		return nil, err
	}
	return decoded, nil
}

// splitRecords cuts the file into 128-byte records, tolerating both CRLF and
// LF separators and a trailing newline.
func splitRecords(content []byte) ([][]byte, error) {
	lines := bytes.Split(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), []byte("\n"))
	var records [][]byte
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		if len(line) != recordLen {
			return nil, fmt.Errorf("record %d has length %d, want %d", i+1, len(line), recordLen)
		}
		records = append(records, line)
	}
	return records, nil
}

func (d *Decoded) parseHeader(record []byte, code HebrewCode) error {
	if record[0] != recordHeader {
		return fmt.Errorf("first record is type %q, want header", record[0])
	}
	d.InstitutionID = string(record[1:9])
	d.InstitutionName = strings.TrimSpace(DecodeText(record[39:69], code))

	var err error
	if d.PaymentDate, err = time.Parse(dateLayout, string(record[11:17])); err != nil {
		return fmt.Errorf("invalid payment date in header: %w", err)
	}
	if d.CreationDate, err = time.Parse(dateLayout, string(record[22:28])); err != nil {
		return fmt.Errorf("invalid creation date in header: %w", err)
	}
	if d.SequenceNumber, err = strconv.Atoi(string(record[18:21])); err != nil {
		return fmt.Errorf("invalid sequence number in header: %w", err)
	}
	return nil
}

func parseDetail(record []byte, code HebrewCode) (*Payment, error) {
	if record[0] != recordDetail {
		return nil, fmt.Errorf("record is type %q, want detail", record[0])
	}

	agorot, err := strconv.ParseInt(string(record[61:74]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	return &Payment{
		BankCode:      trimZeros(string(record[17:19])),
		BranchCode:    string(record[19:22]),
		AccountNumber: trimZeros(string(record[26:35])),
		BeneficiaryID: strings.TrimLeft(string(record[36:45]), "0"),
		Name:          strings.TrimSpace(DecodeText(record[45:61], code)),
		Amount:        decimal.New(agorot, -2),
	}, nil
}

func (d *Decoded) verifyTrailer(record []byte) error {
	if record[0] != recordTrailer {
		return fmt.Errorf("record before end marker is type %q, want trailer", record[0])
	}

	totalAgorot, err := strconv.ParseInt(string(record[21:36]), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid total amount in trailer: %w", err)
	}
	if total := decimal.New(totalAgorot, -2); !total.Equal(d.TotalAmount) {
		return fmt.Errorf("trailer total %s does not match detail sum %s",
			total.StringFixed(2), d.TotalAmount.StringFixed(2))
	}

	count, err := strconv.Atoi(string(record[51:58]))
	if err != nil {
		return fmt.Errorf("invalid record count in trailer: %w", err)
	}
	if count != len(d.Payments) {
		return fmt.Errorf("trailer count %d does not match %d detail records", count, len(d.Payments))
	}
	return nil
}

// trimZeros strips leading zero padding but keeps a lone zero.
func trimZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
