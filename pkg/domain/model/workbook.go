package model

// Sheet is a single worksheet: a header row followed by data rows.
// Every row in Rows has exactly len(Header) cells.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// EmailsColumn is the header of the column appended by the process endpoint
const EmailsColumn = "Emails"

// XLSXContentType is the MIME type of Excel workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXExtension is the only file extension accepted by the process endpoint
const XLSXExtension = ".xlsx"
