package exclusion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

// LoadExclusionSet reads the sub-account exclusion file at path. An empty path
// yields an empty set.
func LoadExclusionSet(path string) (domain.ExclusionSet, error) {
	if path == "" {
		return domain.NewExclusionSet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exclusion file: %w", err)
	}
	defer f.Close()

	set, err := ReadExclusionSet(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusion file %s: %w", path, err)
	}
	return set, nil
}

// ReadExclusionSet parses rows from r. The first row is a header; every other
// non-blank row contributes its first column, trimmed.
func ReadExclusionSet(r io.Reader) (domain.ExclusionSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	set := domain.NewExclusionSet()
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		sid := strings.TrimSpace(record[0])
		if sid == "" {
			continue
		}
		set[sid] = struct{}{}
	}
	return set, nil
}
