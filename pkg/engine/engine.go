// Package engine defines the contract between a validated topology and the
// system that materializes it.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/linecard/hellocdk/pkg/topology"
)

type Engine interface {
	Run(ctx context.Context, g *topology.Graph) error
}

// Destroyer is implemented by engines that can tear down what Run created.
type Destroyer interface {
	Destroy(ctx context.Context, g *topology.Graph) error
}

type ErrorKind string

const (
	PermissionDenied ErrorKind = "PermissionDenied"
	LimitExceeded    ErrorKind = "LimitExceeded"
	Conflict         ErrorKind = "Conflict"
	Unknown          ErrorKind = "Unknown"
)

// ProvisioningError carries a failure reported by an engine. Its message is
// the engine's message unchanged.
type ProvisioningError struct {
	Engine string
	// Node is the logical ID being provisioned, empty when the failure is not
	// tied to one node.
	Node string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return e.Err.Error()
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Kind classifies the failure for display.
func (e *ProvisioningError) Kind() ErrorKind {
	var apiErr smithy.APIError
	if !errors.As(e.Err, &apiErr) {
		return Unknown
	}

	code := apiErr.ErrorCode()
	switch {
	case code == "AccessDenied", code == "AccessDeniedException", code == "UnauthorizedOperation",
		code == "AuthorizationError", strings.HasSuffix(code, "AccessDenied"):
		return PermissionDenied
	case code == "LimitExceededException", code == "LimitExceeded", code == "TooManyRequestsException",
		code == "Throttling", code == "ThrottlingException", code == "ServiceQuotaExceededException":
		return LimitExceeded
	case code == "ConflictException", code == "ResourceConflictException", code == "ResourceInUseException",
		code == "BucketAlreadyExists", code == "OperationAbortedException", code == "DeleteConflict":
		return Conflict
	}

	return Unknown
}

// Wrap returns err as a ProvisioningError. Nil stays nil and an error that
// already is a ProvisioningError is returned as is.
func Wrap(engine, node string, err error) error {
	if err == nil {
		return nil
	}

	var perr *ProvisioningError
	if errors.As(err, &perr) {
		return err
	}

	var cfgErr *topology.ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}

	return &ProvisioningError{
		Engine: engine,
		Node:   node,
		Err:    err,
	}
}
