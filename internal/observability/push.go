// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/samber/oops"
)

// Job is the Pushgateway job name used by the CLI.
const Job = "tbook-auth"

// Push sends everything in g to the Pushgateway at url, grouped by command.
// Each push replaces the previous metrics of the same group.
func Push(ctx context.Context, url, command string, g prometheus.Gatherer) error {
	err := push.New(url, Job).
		Gatherer(g).
		Grouping("command", command).
		PushContext(ctx)
	if err != nil {
		return oops.Code("METRICS_PUSH_FAILED").
			With("url", url).
			With("command", command).
			Wrap(err)
	}
	return nil
}
