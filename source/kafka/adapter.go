package kafka

import (
	"context"

	"wordsmith/internal/job"
)

type EmitFunc func(*job.Frame) error

type Adapter interface {
	Configure(Config) error
	Run(context.Context, EmitFunc) error
	Close() error
}
