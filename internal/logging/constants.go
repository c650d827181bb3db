package logging

// Standardized field names for structured logging. Using the same keys across
// the import and export paths keeps the log output filterable.
const (
	FieldFile       = "file"
	FieldSheet      = "sheet"
	FieldRow        = "row"
	FieldFieldName  = "field"
	FieldTransferID = "transfer_id"
	FieldStatus     = "status"
	FieldCount      = "count"
	FieldTotalRows  = "total_rows"
	FieldValidRows  = "valid_rows"
	FieldInvalid    = "invalid_rows"
	FieldAmount     = "amount"
	FieldOutput     = "output_file"
	FieldDriver     = "driver"
)
