package ledger

import (
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

var (
	// ErrOpenFailed indicates the ledger database could not be opened.
	ErrOpenFailed = errors.LedgerError("could not open failure ledger").Build()

	// ErrSchemaFailed indicates the ledger schema could not be initialized.
	ErrSchemaFailed = errors.LedgerError("failed to initialize failure ledger schema").Build()
)

func errEmptyURL() error {
	return errors.LedgerError("outcome has no URL").Build()
}

func wrap(err error, op string) error {
	return errors.WrapError(err, errors.CategoryLedger, op).Build()
}
