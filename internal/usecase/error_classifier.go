package usecase

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/greenscope/backend/internal/domain"
)

// Classify maps any resolution failure onto the closed error taxonomy.
// It is total: failures it does not recognise are reported as network errors.
// A nil error classifies to nil.
func Classify(barcode string, err error) *domain.ResolutionError {
	if err == nil {
		return nil
	}

	var resolutionErr *domain.ResolutionError
	if errors.As(err, &resolutionErr) {
		return resolutionErr
	}

	return &domain.ResolutionError{
		Kind:    classifyKind(err),
		Barcode: barcode,
		Err:     err,
	}
}

func classifyKind(err error) domain.ErrorKind {
	var (
		statusErr *domain.StatusError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidEndpoint):
		return domain.KindInvalidEndpoint
	case errors.Is(err, domain.ErrEmptyBody), errors.Is(err, domain.ErrNoData):
		return domain.KindNoData
	case errors.Is(err, domain.ErrProductAbsent), errors.Is(err, domain.ErrNotFound):
		return domain.KindNotFound
	case errors.Is(err, domain.ErrMissingProductName), errors.Is(err, domain.ErrDecoding):
		return domain.KindDecoding
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusNotFound {
			return domain.KindNotFound
		}
		return domain.KindNetwork
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return domain.KindDecoding
	default:
		// transport errors, timeouts, cancellation and rate limiter waits
		return domain.KindNetwork
	}
}
