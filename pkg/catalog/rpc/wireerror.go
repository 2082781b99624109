package rpc

import "github.com/lakesoul-io/lakesoul-go/pkg/catalog"

// wireError carries a typed catalog error across the JSON wire. Business
// errors (conflict, not-found, ...) travel inside the response body
// rather than as a transport-level gRPC status, so the client can
// reconstruct the exact *catalog.ConflictError/etc the caller's
// errors.As checks expect; only genuine transport failures (dial
// errors, decode failures) surface as gRPC status errors.
type wireError struct {
	Kind string

	Message string

	// ConflictKind/PartitionDesc populate a *catalog.ConflictError.
	ConflictKind  string
	PartitionDesc string

	// NotFoundKind/NotFoundKey populate a *catalog.NotFoundError.
	NotFoundKind string
	NotFoundKey  string

	// InvalidStateReason populates a *catalog.InvalidStateError.
	InvalidStateReason string

	// UnavailableReason populates a *catalog.CatalogUnavailableError.
	UnavailableReason string
}

func toWireError(err error) *wireError {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *catalog.ConflictError:
		return &wireError{Kind: "conflict", Message: e.Error(), ConflictKind: string(e.Kind), PartitionDesc: e.PartitionDesc}
	case *catalog.NotFoundError:
		return &wireError{Kind: "not_found", Message: e.Error(), NotFoundKind: e.Kind, NotFoundKey: e.Key}
	case *catalog.InvalidStateError:
		return &wireError{Kind: "invalid_state", Message: e.Error(), InvalidStateReason: e.Reason}
	case *catalog.CatalogUnavailableError:
		return &wireError{Kind: "unavailable", Message: e.Error(), UnavailableReason: e.Reason}
	default:
		return &wireError{Kind: "other", Message: err.Error()}
	}
}

func fromWireError(we *wireError) error {
	if we == nil {
		return nil
	}
	switch we.Kind {
	case "conflict":
		return &catalog.ConflictError{Kind: catalog.ConflictKind(we.ConflictKind), PartitionDesc: we.PartitionDesc}
	case "not_found":
		return &catalog.NotFoundError{Kind: we.NotFoundKind, Key: we.NotFoundKey}
	case "invalid_state":
		return &catalog.InvalidStateError{Reason: we.InvalidStateReason}
	case "unavailable":
		return &catalog.CatalogUnavailableError{Reason: we.UnavailableReason}
	default:
		return errorString(we.Message)
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }
