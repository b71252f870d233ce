// Package common defines shared constants and sentinel errors used across
// the record store and the asset cache agent. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Record store errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTransactionFailed  = errors.New("transaction failed")

	// Validation errors.
	ErrInvalidInspection = errors.New("invalid inspection")
	ErrInvalidManifest   = errors.New("invalid asset manifest")

	// Asset cache errors.
	ErrAssetInstallFailed = errors.New("asset install failed")
	ErrRequestUnservable  = errors.New("request unservable")
)
