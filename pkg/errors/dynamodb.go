package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// FromDynamoDB converts an error returned by the DynamoDB client into an AppError.
// A missing table is reported as a collection NOT_FOUND so read paths can fall back.
func FromDynamoDB(operation, collection string, err error) error {
	if err == nil {
		return nil
	}
	if GetAppError(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewNetworkError(fmt.Sprintf("%s on %s interrupted", operation, collection), err)
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return NewNetworkError(fmt.Sprintf("%s on %s failed", operation, collection), err)
	}

	switch ae.ErrorCode() {
	case "ResourceNotFoundException":
		return NewCollectionNotFoundError(collection).WithCause(err)

	case "AccessDeniedException", "UnrecognizedClientException", "MissingAuthenticationTokenException":
		return NewForbiddenError(fmt.Sprintf("%s on %s denied", operation, collection)).WithCause(err)

	case "ConditionalCheckFailedException":
		return NewConflictError("conditional check failed").WithCause(err)

	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return NewRateLimitError(fmt.Sprintf("%s on %s throttled", operation, collection)).WithCause(err)

	case "ValidationException":
		return NewValidationError(ae.ErrorMessage()).WithCause(err)

	case "InternalServerError", "ServiceUnavailable":
		return NewUnavailableError("dynamodb").WithCause(err)

	default:
		return NewDatabaseError(operation, err).WithDetails(map[string]interface{}{
			"collection": collection,
			"code":       ae.ErrorCode(),
		})
	}
}
