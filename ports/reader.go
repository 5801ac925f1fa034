package ports

import "datachat/domain/table"

// TableReader parses a stored file into an in-memory Frame.
// Implementations choose the parse strategy from the file extension.
type TableReader interface {
	Read(filePath string) (*table.Frame, error)
}
