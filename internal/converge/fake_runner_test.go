// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package converge_test

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/holomush/esplugin/internal/converge"
)

// call records one runner invocation and the environment it saw.
type call struct {
	Path string
	Args []string
	Env  map[string]string
}

// response scripts the outcome of one invocation.
type response struct {
	out []byte
	err error
	// effect runs before returning, e.g. to write a descriptor.
	effect func()
}

// fakeRunner replays scripted responses in order; once they run out every
// call succeeds with empty output.
type fakeRunner struct {
	mu        sync.Mutex
	responses []response
	calls     []call
	watch     []string
}

func newFakeRunner(responses ...response) *fakeRunner {
	return &fakeRunner{
		responses: responses,
		watch:     []string{"ES_JAVA_OPTS", "ES_PATH_CONF", "JAVA_HOME"},
	}
}

func (f *fakeRunner) Run(_ context.Context, path string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	env := make(map[string]string)
	for _, k := range f.watch {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	f.calls = append(f.calls, call{Path: path, Args: append([]string(nil), args...), Env: env})

	if len(f.responses) == 0 {
		return nil, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	if r.effect != nil {
		r.effect()
	}
	return r.out, r.err
}

func (f *fakeRunner) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// recordingBackoff wraps the default policy without sleeping and records
// the delays it would have waited.
type recordingBackoff struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingBackoff) factory(attempts int, delay time.Duration) func() retry.Backoff {
	return func() retry.Backoff {
		base := converge.DefaultBackoff(attempts, delay)
		return retry.BackoffFunc(func() (time.Duration, bool) {
			next, stop := base.Next()
			if !stop {
				r.mu.Lock()
				r.delays = append(r.delays, next)
				r.mu.Unlock()
			}
			return 0, stop
		})
	}
}

func (r *recordingBackoff) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}
