package fileingest

import (
	log "github.com/sirupsen/logrus"

	"ticketclassifier/pkg/categorizer"
)

// LoadCategories reads and validates a taxonomy JSON file.
func LoadCategories(path string) (*categorizer.Taxonomy, error) {
	data, err := ReadFileContent(path)
	if err != nil {
		return nil, err
	}
	taxonomy, err := categorizer.ParseTaxonomy(data)
	if err != nil {
		return nil, categorizer.NewDataLoadError(path, "invalid categories file", err)
	}
	log.Debugf("Loaded %d top-level categories from %s", taxonomy.Len(), path)
	return taxonomy, nil
}

// LoadData loads the ticket and then the taxonomy.
func LoadData(ticketPath, categoriesPath string) (categorizer.Ticket, *categorizer.Taxonomy, error) {
	ticket, err := LoadTicket(ticketPath)
	if err != nil {
		return "", nil, err
	}
	taxonomy, err := LoadCategories(categoriesPath)
	if err != nil {
		return "", nil, err
	}
	return ticket, taxonomy, nil
}
