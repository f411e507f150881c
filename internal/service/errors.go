/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package service

import (
	"errors"
	"fmt"

	"github.com/sql-instance-planner/internal/storage"
)

// Common service errors
var (
	// ErrInvalidInput indicates a document could not be decoded or is not a SQLInstance
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a published plan was not found
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFamily indicates the engine family cannot be inspected
	ErrUnsupportedFamily = errors.New("unsupported engine family")

	// ErrUnsupportedScheme indicates a storage URL no backend understands
	ErrUnsupportedScheme = storage.ErrUnsupportedScheme
)

// ValidationError represents a configuration error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// StorageError wraps errors from plan storage operations.
type StorageError struct {
	Operation string
	Location  string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s at %s: %v", e.Operation, e.Location, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation, location string, err error) *StorageError {
	return &StorageError{
		Operation: operation,
		Location:  location,
		Err:       err,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, storage.ErrObjectNotFound)
}

// IsValidationError checks if an error is a configuration validation error.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsStorageError checks if an error is a storage error.
func IsStorageError(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr)
}
