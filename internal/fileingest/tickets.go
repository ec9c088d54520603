package fileingest

import (
	"errors"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"ticketclassifier/internal/util"
	"ticketclassifier/pkg/categorizer"
)

// LoadTicket reads a support ticket from path. Plain text is returned exactly
// as stored (minus a UTF-8 BOM); HTML tickets are reduced to their visible
// text. A ticket that is empty or only whitespace is a DataLoadError.
func LoadTicket(path string) (categorizer.Ticket, error) {
	data, err := ReadFileContent(path)
	if err != nil {
		return "", err
	}

	text, err := util.DecodeText(data)
	if err != nil {
		return "", categorizer.NewDataLoadError(path, "ticket cannot be decoded as text", err)
	}

	if looksLikeHTML(path, data) {
		plain, err := htmlToText(text)
		if err != nil {
			return "", categorizer.NewDataLoadError(path, "ticket HTML cannot be parsed", err)
		}
		log.Debugf("Extracted %d chars of text from HTML ticket %s", len(plain), path)
		text = strings.TrimSpace(plain)
	}

	if strings.TrimSpace(text) == "" {
		return "", categorizer.NewDataLoadError(path, "ticket is empty", nil)
	}
	return categorizer.Ticket(text), nil
}

// ReadFileContent reads the whole file, mapping filesystem failures to
// *categorizer.DataLoadError.
func ReadFileContent(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, categorizer.NewDataLoadError(path, "no file path given", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, categorizer.NewDataLoadError(path, "file not found", err)
		}
		return nil, categorizer.NewDataLoadError(path, "cannot stat file", err)
	}
	if info.IsDir() {
		return nil, categorizer.NewDataLoadError(path, "is a directory, not a file", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, categorizer.NewDataLoadError(path, "permission denied", err)
		}
		return nil, categorizer.NewDataLoadError(path, "cannot read file", err)
	}
	return data, nil
}
