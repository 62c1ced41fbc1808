// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil holds helpers for oops errors shared by commands and tests.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level with any extra attributes.
// For oops errors the code and context are logged as separate attributes.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err.Error())
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
	}
	logger.Error(msg, attrs...)
}

// Code returns the oops code carried by err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}
