// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package environ applies temporary environment variable bindings around a
// single external command invocation.
package environ

import (
	"os"
	"sort"
	"sync"

	"github.com/samber/oops"
)

// Overlay maps environment variable names to the values they hold while an
// overlay is in scope.
type Overlay map[string]string

// mu serializes scopes. The process environment is global, so two
// concurrent scopes would otherwise observe each other's bindings.
var mu sync.Mutex

// Keys returns the overlay's variable names in sorted order. Log these
// rather than the overlay itself; values can carry proxy credentials.
func (o Overlay) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type saved struct {
	value string
	set   bool
}

// Scope applies the overlay, runs fn and restores every overlaid variable
// to its prior value, or unsets it if it was unset. Restoration happens on
// every exit path including a panic in fn.
func (o Overlay) Scope(fn func() error) (err error) {
	mu.Lock()
	defer mu.Unlock()

	prior := make(map[string]saved, len(o))
	defer func() {
		if rerr := restore(prior); rerr != nil && err == nil {
			err = rerr
		}
	}()

	for k, v := range o {
		old, ok := os.LookupEnv(k)
		prior[k] = saved{value: old, set: ok}
		if serr := os.Setenv(k, v); serr != nil {
			return oops.With("variable", k).Wrapf(serr, "set environment")
		}
	}

	return fn()
}

func restore(prior map[string]saved) error {
	var first error
	for k, s := range prior {
		var err error
		if s.set {
			err = os.Setenv(k, s.value)
		} else {
			err = os.Unsetenv(k)
		}
		if err != nil && first == nil {
			first = oops.With("variable", k).Wrapf(err, "restore environment")
		}
	}
	return first
}
