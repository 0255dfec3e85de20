package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

type fakeSweeper struct {
	summary *inventory.SweepSummary
	err     error
	called  int
}

func (f *fakeSweeper) SweepExpirations(context.Context) (*inventory.SweepSummary, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func TestExpirationSweepJobRunsSweep(t *testing.T) {
	sweeper := &fakeSweeper{summary: &inventory.SweepSummary{Scanned: 3, Changed: 1}}
	job, err := NewExpirationSweepJob(ExpirationSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Inventory: sweeper,
	})
	if err != nil {
		t.Fatalf("NewExpirationSweepJob: %v", err)
	}
	if job.Name() != "expiration-sweep" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.called != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.called)
	}
}

func TestExpirationSweepJobPropagatesErrors(t *testing.T) {
	job, err := NewExpirationSweepJob(ExpirationSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Inventory: &fakeSweeper{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewExpirationSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
