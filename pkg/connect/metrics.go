// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package connect

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/datastudies/coursekit/pkg/logger"
)

const meterName = "github.com/datastudies/coursekit/pkg/connect"

// failureStage says which step of a resolution failed.
type failureStage string

const (
	// stageClient is the read-only client construction.
	stageClient failureStage = "client"
	// stageLiveness is the liveness check against a subreddit listing.
	stageLiveness failureStage = "liveness"
)

type resolverMetrics struct {
	resolutions metric.Int64Counter
	failures    metric.Int64Counter
}

func newResolverMetrics(mp metric.MeterProvider) *resolverMetrics {
	meter := mp.Meter(meterName)

	var m resolverMetrics
	var err error

	m.resolutions, err = meter.Int64Counter(
		"coursekit.reddit.resolutions",
		metric.WithDescription("Successful Reddit client resolutions by auth mode"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		logger.Debugf("failed to create resolutions counter: %v", err)
		m.resolutions = noop.Int64Counter{}
	}

	m.failures, err = meter.Int64Counter(
		"coursekit.reddit.resolution_failures",
		metric.WithDescription("Failed Reddit client resolutions by stage"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		logger.Debugf("failed to create resolution failures counter: %v", err)
		m.failures = noop.Int64Counter{}
	}

	return &m
}

func (m *resolverMetrics) recordResolution(ctx context.Context, mode AuthMode) {
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("auth_mode", string(mode))))
}

func (m *resolverMetrics) recordFailure(ctx context.Context, stage failureStage) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", string(stage))))
}
