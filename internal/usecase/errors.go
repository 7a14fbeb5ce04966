package usecase

import (
	"fmt"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

func wrapTransient(err error) error {
	if domainErrors.KindOf(err) != domainErrors.KindInternal {
		return err
	}
	return fmt.Errorf("%w: %w", domainErrors.ErrTransactionFailed, err)
}
