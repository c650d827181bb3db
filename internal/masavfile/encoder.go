// Package masavfile encodes validated transfers into the fixed-width MASAV
// banking format and decodes such files back for verification. Every record
// is exactly 128 bytes followed by CRLF; the file closes with an all-nines
// end marker.
package masavfile

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
)

const (
	recordLen = 128

	recordHeader  = 'K'
	recordDetail  = '1'
	recordTrailer = '5'

	nameWidth            = 16
	institutionNameWidth = 30
	amountWidth          = 13
	totalWidth           = 15
	countWidth           = 7

	dateLayout = "060102"
)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// Settings identifies the paying institution. The values come from
// configuration and stay constant across exports.
type Settings struct {
	// InstitutionID is the 8-digit code MASAV assigned to the institution.
	InstitutionID string

	// InstitutionName appears in the header record, at most 30 characters.
	InstitutionName string

	// SequenceNumber distinguishes files created for the same payment date,
	// 1-999.
	SequenceNumber int

	// Encoding selects the Hebrew code for name fields. Defaults to Code A.
	Encoding HebrewCode

	// FileExtension is the extension of the generated filename, without the
	// dot. Defaults to "msv".
	FileExtension string
}

// Options carry per-export values.
type Options struct {
	// PaymentDate is the date the bank should execute the transfers.
	PaymentDate time.Time

	// CreationDate defaults to the current time when zero.
	CreationDate time.Time
}

// File is the encoded result.
type File struct {
	Name        string
	Content     []byte
	Count       int
	TotalAmount decimal.Decimal
}

// Encode builds a complete MASAV file from the given transfers. Encoding is
// all-or-nothing: any field that does not fit its record slot fails the whole
// file, except the beneficiary name, which the format itself truncates to 16
// characters.
func Encode(settings Settings, transfers []models.TransferRecord, opts Options) (*File, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return nil, &pipelineerror.EncodeError{Msg: "no transfers to encode"}
	}
	if opts.PaymentDate.IsZero() {
		return nil, &pipelineerror.EncodeError{Field: "payment_date", Msg: "payment date is required"}
	}
	if opts.CreationDate.IsZero() {
		opts.CreationDate = time.Now()
	}
	code := settings.Encoding
	if code == "" {
		code = CodeA
	}

	var buf bytes.Buffer
	writeRecord := func(record []byte) error {
		if len(record) != recordLen {
			return &pipelineerror.EncodeError{
				Msg: fmt.Sprintf("internal record length %d, want %d", len(record), recordLen),
			}
		}
		buf.Write(record)
		buf.WriteString("\r\n")
		return nil
	}

	if err := writeRecord(headerRecord(settings, opts, code)); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, t := range transfers {
		agorot, err := amountAgorot(t)
		if err != nil {
			return nil, err
		}
		record, err := detailRecord(settings, t, agorot, code)
		if err != nil {
			return nil, err
		}
		if err := writeRecord(record); err != nil {
			return nil, err
		}
		total = total.Add(t.Amount)
	}

	trailer, err := trailerRecord(settings, opts, total, len(transfers))
	if err != nil {
		return nil, err
	}
	if err := writeRecord(trailer); err != nil {
		return nil, err
	}
	if err := writeRecord(bytes.Repeat([]byte{'9'}, recordLen)); err != nil {
		return nil, err
	}

	return &File{
		Name:        Filename(settings, opts.PaymentDate),
		Content:     buf.Bytes(),
		Count:       len(transfers),
		TotalAmount: total,
	}, nil
}

// Filename returns the conventional name for a file of the given payment
// date and sequence number: MASAV_YYMMDD_SSS.ext.
func Filename(settings Settings, paymentDate time.Time) string {
	ext := settings.FileExtension
	if ext == "" {
		ext = "msv"
	}
	return fmt.Sprintf("MASAV_%s_%03d.%s",
		paymentDate.Format(dateLayout), settings.SequenceNumber, ext)
}

func validateSettings(settings Settings) error {
	if len(settings.InstitutionID) != 8 || !digitsRe.MatchString(settings.InstitutionID) {
		return &pipelineerror.EncodeError{
			Field: "institution_id",
			Msg:   "institution id must be exactly 8 digits",
		}
	}
	if settings.SequenceNumber < 1 || settings.SequenceNumber > 999 {
		return &pipelineerror.EncodeError{
			Field: "sequence_number",
			Msg:   "sequence number must be between 1 and 999",
		}
	}
	if len([]rune(settings.InstitutionName)) > institutionNameWidth {
		return &pipelineerror.EncodeError{
			Field: "institution_name",
			Msg:   fmt.Sprintf("institution name longer than %d characters", institutionNameWidth),
		}
	}
	return nil
}

func headerRecord(settings Settings, opts Options, code HebrewCode) []byte {
	var b bytes.Buffer
	b.WriteByte(recordHeader)
	b.WriteString(settings.InstitutionID)
	b.WriteString("00") // currency: new shekel
	b.WriteString(opts.PaymentDate.Format(dateLayout))
	b.WriteByte('0')
	b.WriteString(fmt.Sprintf("%03d", settings.SequenceNumber))
	b.WriteByte('0')
	b.WriteString(opts.CreationDate.Format(dateLayout))
	b.WriteString(settings.InstitutionID[:5]) // sending institution
	b.WriteString(strings.Repeat("0", 6))
	b.Write(padTextLeft(settings.InstitutionName, institutionNameWidth, code))
	b.WriteString(strings.Repeat(" ", 56))
	b.WriteString("KOT")
	return b.Bytes()
}

func detailRecord(settings Settings, t models.TransferRecord, agorot string, code HebrewCode) ([]byte, error) {
	bank, err := padDigits(t.BankCode, 2, t.ID, "bank_code")
	if err != nil {
		return nil, err
	}
	branch, err := padDigits(t.BranchCode, 3, t.ID, "branch_code")
	if err != nil {
		return nil, err
	}
	account, err := padDigits(t.AccountNumber, 9, t.ID, "account_number")
	if err != nil {
		return nil, err
	}
	beneficiaryID := t.IDNumber
	if beneficiaryID == "" {
		beneficiaryID = "0"
	}
	beneficiary, err := padDigits(beneficiaryID, 9, t.ID, "id_number")
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteByte(recordDetail)
	b.WriteString(settings.InstitutionID)
	b.WriteString("00")
	b.WriteString(strings.Repeat("0", 6))
	b.WriteString(bank)
	b.WriteString(branch)
	b.WriteString("0000") // account type
	b.WriteString(account)
	b.WriteByte('0')
	b.WriteString(beneficiary)
	b.Write(padTextLeft(truncateRunes(t.RecipientName, nameWidth), nameWidth, code))
	b.WriteString(agorot)
	b.WriteString(strings.Repeat("0", 20)) // institution reference
	b.WriteString(strings.Repeat("0", 8))
	b.WriteString("006") // payment type: credit
	b.WriteString("006") // record purpose
	b.WriteString(strings.Repeat("0", 18))
	b.WriteString("  ")
	return b.Bytes(), nil
}

func trailerRecord(settings Settings, opts Options, total decimal.Decimal, count int) ([]byte, error) {
	totalAgorot := total.Shift(2).Round(0).String()
	if len(totalAgorot) > totalWidth {
		return nil, &pipelineerror.EncodeError{
			Field: "total_amount",
			Msg:   fmt.Sprintf("total amount does not fit %d digits", totalWidth),
		}
	}

	var b bytes.Buffer
	b.WriteByte(recordTrailer)
	b.WriteString(settings.InstitutionID)
	b.WriteString("00")
	b.WriteString(opts.PaymentDate.Format(dateLayout))
	b.WriteByte('0')
	b.WriteString(fmt.Sprintf("%03d", settings.SequenceNumber))
	b.WriteString(zeroPad(totalAgorot, totalWidth))
	b.WriteString(strings.Repeat("0", 15))
	b.WriteString(fmt.Sprintf("%0*d", countWidth, count))
	b.WriteString(strings.Repeat("0", 7))
	b.WriteString(strings.Repeat(" ", 63))
	return b.Bytes(), nil
}

// amountAgorot converts a transfer amount to its 13-digit agorot form.
func amountAgorot(t models.TransferRecord) (string, error) {
	agorot := t.Amount.Shift(2).Round(0)
	s := agorot.String()
	if !agorot.IsPositive() || len(s) > amountWidth {
		return "", &pipelineerror.EncodeError{
			TransferID: t.ID,
			Field:      "amount",
			Msg:        fmt.Sprintf("amount %s does not fit %d agorot digits", t.Amount.String(), amountWidth),
		}
	}
	return zeroPad(s, amountWidth), nil
}

// padDigits zero-pads a numeric value to width. A value that is too long or
// non-numeric fails the encode; widths are fixed and silent truncation would
// pay the wrong account.
func padDigits(value string, width int, transferID, field string) (string, error) {
	if !digitsRe.MatchString(value) || len(value) > width {
		return "", &pipelineerror.EncodeError{
			TransferID: transferID,
			Field:      field,
			Msg:        fmt.Sprintf("value %q does not fit %d digits", value, width),
		}
	}
	return zeroPad(value, width), nil
}

func zeroPad(s string, width int) string {
	return strings.Repeat("0", width-len(s)) + s
}

// padTextLeft encodes text and right-aligns it in a width-byte field.
func padTextLeft(s string, width int, code HebrewCode) []byte {
	encoded := EncodeText(s, code)
	if len(encoded) >= width {
		return encoded[:width]
	}
	return append(bytes.Repeat([]byte{' '}, width-len(encoded)), encoded...)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
