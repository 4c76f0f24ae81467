package errors

import "fmt"

// Common error wrapping patterns used throughout the codebase

// WrapWithOperation wraps an error with an operation context
func WrapWithOperation(operation, item string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s %s", operation, item)
	return Wrap(UnknownErrorCode, message, cause)
}

// WrapSourceError wraps failures while loading comment sources
func WrapSourceError(operation, target string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s %s", operation, target)
	return Wrap(SourceLoadErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("target", target)
}

// WrapCacheError wraps cache read/write failures
func WrapCacheError(operation, key string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s cache entry '%s'", operation, key)
	return Wrap(CacheErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("key", key)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}
