package masavfile

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
)

func testSettings() Settings {
	return Settings{
		InstitutionID:   "12345678",
		InstitutionName: "מוסד חסד",
		SequenceNumber:  1,
		Encoding:        CodeA,
		FileExtension:   "txt",
	}
}

func testOptions() Options {
	return Options{
		PaymentDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CreationDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
}

func testTransfers() []models.TransferRecord {
	return []models.TransferRecord{
		{
			ID:            "t1",
			RecipientName: "ישראל ישראלי",
			IDNumber:      "123456789",
			BankCode:      "12",
			BranchCode:    "345",
			AccountNumber: "678901",
			Amount:        decimal.RequireFromString("1500.50"),
			Status:        models.StatusSelected,
		},
		{
			ID:            "t2",
			RecipientName: "רות כהן",
			BankCode:      "4",
			BranchCode:    "001",
			AccountNumber: "22334455",
			Amount:        decimal.RequireFromString("250.00"),
			Status:        models.StatusPending,
		},
	}
}

func encodedRecords(t *testing.T, file *File) [][]byte {
	t.Helper()
	records := bytes.Split(bytes.TrimSuffix(file.Content, []byte("\r\n")), []byte("\r\n"))
	for i, r := range records {
		require.Len(t, r, 128, "record %d", i)
	}
	return records
}

func TestEncode(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, "MASAV_260901_001.txt", file.Name)
	assert.Equal(t, 2, file.Count)
	assert.Equal(t, "1750.50", file.TotalAmount.StringFixed(2))

	records := encodedRecords(t, file)
	require.Len(t, records, 5, "header, two details, trailer, end marker")
}

func TestEncodeDeterministic(t *testing.T) {
	first, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)
	second, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content,
		"encoding the same transfers for the same dates is byte-identical")
	assert.Equal(t, first.Name, second.Name)
}

func TestEncodeHeaderRecord(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)
	header := encodedRecords(t, file)[0]

	assert.Equal(t, byte('K'), header[0])
	assert.Equal(t, "12345678", string(header[1:9]))
	assert.Equal(t, "00", string(header[9:11]))
	assert.Equal(t, "260901", string(header[11:17]))
	assert.Equal(t, "001", string(header[18:21]))
	assert.Equal(t, "260830", string(header[22:28]))
	assert.Equal(t, "12345", string(header[28:33]), "sender is the first five digits of the institution id")
	assert.True(t, bytes.HasSuffix(header[39:69], []byte("NEQC GQC")), "institution name right-aligned in Code A")
	assert.Equal(t, "KOT", string(header[125:128]))
}

func TestEncodeDetailRecord(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)
	records := encodedRecords(t, file)

	first := records[1]
	assert.Equal(t, byte('1'), first[0])
	assert.Equal(t, "12", string(first[17:19]))
	assert.Equal(t, "345", string(first[19:22]))
	assert.Equal(t, "000678901", string(first[26:35]))
	assert.Equal(t, "123456789", string(first[36:45]))
	assert.Equal(t, "0000000150050", string(first[61:74]), "amount carried in agorot")
	assert.Equal(t, "006", string(first[102:105]))
	assert.Equal(t, "006", string(first[105:108]))

	second := records[2]
	assert.Equal(t, "04", string(second[17:19]), "single-digit bank code zero-padded")
	assert.Equal(t, "000000000", string(second[36:45]), "missing id number encoded as zeros")
	assert.Equal(t, "0000000025000", string(second[61:74]))
}

func TestEncodeTrailerAndEOF(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)
	records := encodedRecords(t, file)

	trailer := records[len(records)-2]
	assert.Equal(t, byte('5'), trailer[0])
	assert.Equal(t, "260901", string(trailer[11:17]))
	assert.Equal(t, "000000000175050", string(trailer[21:36]), "total in agorot")
	assert.Equal(t, "0000002", string(trailer[51:58]), "record count")

	eof := records[len(records)-1]
	assert.Equal(t, bytes.Repeat([]byte{'9'}, 128), eof)
}

func TestEncodeNameTruncation(t *testing.T) {
	transfers := testTransfers()[:1]
	transfers[0].RecipientName = "אבגדהוזחטיכלמנסעפצקרשת" // longer than the 16-char field

	file, err := Encode(testSettings(), transfers, testOptions())
	require.NoError(t, err)

	name := encodedRecords(t, file)[1][45:61]
	assert.Len(t, name, 16)
	assert.NotEqual(t, byte(' '), name[0], "truncated name fills the whole field")
}

func TestEncodeFieldOverflow(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.TransferRecord)
		field  string
	}{
		{"Account over nine digits", func(r *models.TransferRecord) { r.AccountNumber = "1234567890" }, "account_number"},
		{"Id over nine digits", func(r *models.TransferRecord) { r.IDNumber = "1234567890" }, "id_number"},
		{"Non-numeric bank", func(r *models.TransferRecord) { r.BankCode = "1a" }, "bank_code"},
		{"Zero amount", func(r *models.TransferRecord) { r.Amount = decimal.Zero }, "amount"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transfers := testTransfers()
			tc.mutate(&transfers[0])

			_, err := Encode(testSettings(), transfers, testOptions())

			var encodeErr *pipelineerror.EncodeError
			require.ErrorAs(t, err, &encodeErr)
			assert.Equal(t, tc.field, encodeErr.Field)
			assert.Equal(t, "t1", encodeErr.TransferID)
		})
	}
}

func TestEncodeSettingsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"Short institution id", func(s *Settings) { s.InstitutionID = "1234567" }},
		{"Non-numeric institution id", func(s *Settings) { s.InstitutionID = "1234567a" }},
		{"Zero sequence", func(s *Settings) { s.SequenceNumber = 0 }},
		{"Sequence too large", func(s *Settings) { s.SequenceNumber = 1000 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := testSettings()
			tc.mutate(&settings)

			_, err := Encode(settings, testTransfers(), testOptions())
			assert.Error(t, err)
		})
	}
}

func TestEncodeRequiresTransfersAndDate(t *testing.T) {
	_, err := Encode(testSettings(), nil, testOptions())
	assert.Error(t, err)

	_, err = Encode(testSettings(), testTransfers(), Options{})
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, code := range []HebrewCode{CodeA, CodeB} {
		settings := testSettings()
		settings.Encoding = code

		file, err := Encode(settings, testTransfers(), testOptions())
		require.NoError(t, err)

		decoded, err := Decode(file.Content)
		require.NoError(t, err)

		assert.Equal(t, code, decoded.Encoding)
		assert.Equal(t, "12345678", decoded.InstitutionID)
		assert.Equal(t, "מוסד חסד", decoded.InstitutionName)
		assert.Equal(t, 1, decoded.SequenceNumber)
		assert.Equal(t, "260901", decoded.PaymentDate.Format("060102"))
		assert.True(t, decimal.RequireFromString("1750.50").Equal(decoded.TotalAmount))

		require.Len(t, decoded.Payments, 2)
		p := decoded.Payments[0]
		assert.Equal(t, "ישראל ישראלי", p.Name)
		assert.Equal(t, "12", p.BankCode)
		assert.Equal(t, "345", p.BranchCode)
		assert.Equal(t, "678901", p.AccountNumber)
		assert.Equal(t, "123456789", p.BeneficiaryID)
		assert.True(t, decimal.RequireFromString("1500.50").Equal(p.Amount))

		assert.Equal(t, "4", decoded.Payments[1].BankCode)
		assert.Empty(t, decoded.Payments[1].BeneficiaryID)
	}
}

func TestFilename(t *testing.T) {
	settings := testSettings()
	settings.SequenceNumber = 42
	settings.FileExtension = "msv"

	name := Filename(settings, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "MASAV_260105_042.msv", name)
}
