// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/internal/config"
)

// Target window for one hash on a production host.
const (
	calibrateLow  = 100 * time.Millisecond
	calibrateHigh = 300 * time.Millisecond
)

// calibration is the outcome of timing the configured hash policy.
type calibration struct {
	Policy  auth.HashPolicy
	Samples []time.Duration
	Average time.Duration
	Verdict string
}

// NewCalibrateCmd creates the calibrate subcommand.
func NewCalibrateCmd(opts *rootOptions) *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Time password hashing with the configured cost",
		Long: `Hash a sample password with the configured algorithm and cost and
report the average time against the 100-300ms target.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{File: opts.configFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			policy := cfg.HashPolicy()
			if err := policy.Validate(); err != nil {
				return err
			}
			result, err := calibrate(cmd.Context(), policy, iterations)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "algorithm: %s\n", result.Policy.Algorithm)
			if result.Policy.Algorithm == auth.AlgorithmArgon2id {
				fmt.Fprintf(cmd.OutOrStdout(), "cost:      t=%d m=%dKiB p=%d\n", result.Policy.Time, result.Policy.MemoryKiB, result.Policy.Threads)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "cost:      %d\n", result.Policy.BcryptCost)
			}
			for i, s := range result.Samples {
				fmt.Fprintf(cmd.OutOrStdout(), "sample %d:  %s\n", i+1, s.Round(time.Millisecond))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "average:   %s (%s)\n", result.Average.Round(time.Millisecond), result.Verdict)
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 3, "number of hashes to time")
	return cmd
}

func calibrate(ctx context.Context, policy auth.HashPolicy, iterations int) (calibration, error) {
	if iterations < 1 {
		return calibration{}, oops.Code("CALIBRATE_INVALID").Errorf("iterations must be at least 1")
	}
	hasher, err := auth.NewHasher(policy)
	if err != nil {
		return calibration{}, err
	}

	result := calibration{Policy: policy}
	var total time.Duration
	for range iterations {
		start := time.Now()
		if _, err := hasher.Hash(ctx, "calibration-password"); err != nil {
			return calibration{}, err
		}
		elapsed := time.Since(start)
		result.Samples = append(result.Samples, elapsed)
		total += elapsed
	}
	result.Average = total / time.Duration(iterations)
	result.Verdict = verdict(result.Average)
	return result, nil
}

func verdict(avg time.Duration) string {
	switch {
	case avg < calibrateLow:
		return "below target, raise the cost"
	case avg > calibrateHigh:
		return "above target, lower the cost"
	default:
		return "within target"
	}
}
