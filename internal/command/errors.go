// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"errors"
	"net/url"

	"github.com/samber/oops"

	"github.com/holomush/esplugin/internal/version"
)

// Error codes for command building failures.
const (
	CodeProxyInvalid   = "PROXY_INVALID"
	CodeCommandInvalid = "COMMAND_INVALID"
)

// ErrProxyInvalid creates an error for an unparsable proxy URL. The URL may
// carry credentials, so a *url.Error is reduced to its inner cause.
func ErrProxyInvalid(cause error) error {
	var ue *url.Error
	if errors.As(cause, &ue) {
		cause = ue.Err
	}
	return oops.Code(CodeProxyInvalid).Wrapf(cause, "invalid proxy URL")
}

// ErrUnknownOperation creates an error for an operation the builder does not know.
func ErrUnknownOperation(op Operation) error {
	return oops.Code(CodeCommandInvalid).
		With("operation", op.String()).
		Errorf("unknown plugin operation %s", op)
}

// ErrUnknownEra creates an error for an era without an install form.
func ErrUnknownEra(era version.Era) error {
	return oops.Code(CodeCommandInvalid).
		With("era", era.String()).
		Errorf("no install command for era %s", era)
}
