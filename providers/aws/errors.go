package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/sundownlabs/teardown/providers"
)

// classify maps an AWS API error onto the engine's retry taxonomy:
// throttling retries, permission and policy denials do not, and anything
// that means "already gone" becomes ErrNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.ErrorCode()
	switch {
	case isNotFoundCode(code):
		return fmt.Errorf("%s: %w", code, providers.ErrNotFound)
	case isThrottleCode(code):
		return providers.Transient(err)
	case isAccessDeniedCode(code):
		return providers.Terminal(providers.KindAccessDenied, err)
	case isConflictCode(code):
		return providers.Terminal(providers.KindConflict, err)
	default:
		// Unknown codes stay unclassified; the destroyer treats them as
		// not worth retrying.
		return err
	}
}

func isNotFoundCode(code string) bool {
	switch code {
	case "NoSuchBucket", "NoSuchEntity", "NotFoundException", "ResourceNotFoundException",
		"ResourceNotFoundFault", "DBInstanceNotFound", "DBClusterNotFoundFault",
		"ClusterNotFound", "ClusterNotFoundFault", "ClusterNotFoundException",
		"StackNotFoundException", "QueueDoesNotExist",
		"AWS.SimpleQueueService.NonExistentQueue", "RepositoryNotFoundException",
		"TrailNotFoundException", "LoadBalancerNotFound",
		// CloudFormation reports a missing stack as ValidationError.
		"ValidationError":
		return true
	}
	return strings.Contains(code, "NotFound")
}

func isThrottleCode(code string) bool {
	switch code {
	case "Throttling", "ThrottlingException", "RequestLimitExceeded",
		"TooManyRequestsException", "RequestThrottled", "SlowDown",
		"ProvisionedThroughputExceededException", "LimitExceededException":
		return true
	}
	return false
}

func isAccessDeniedCode(code string) bool {
	switch code {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation",
		"UnauthorizedAccess", "Forbidden", "OptInRequired":
		return true
	}
	return false
}

func isConflictCode(code string) bool {
	switch code {
	case "DependencyViolation", "ResourceInUseException", "InvalidParameterValue",
		"DeleteConflict", "OperationNotPermitted", "KMSInvalidStateException",
		"InvalidDBInstanceState", "InvalidDBClusterStateFault":
		return true
	}
	return false
}
