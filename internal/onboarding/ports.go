package onboarding

import (
	"context"

	"facebank/internal/bank/envelope"
	"facebank/internal/face"
)

// Registrar is the slice of the bank API onboarding needs.
type Registrar interface {
	SendCode(ctx context.Context, name, email string) (envelope.Result, error)
	ConfirmCode(ctx context.Context, email, code string) (envelope.Result, error)
	EnrollFace(ctx context.Context, email string, sample face.Sample) (envelope.Result, error)
}

// Camera hands out capture leases and samples.
type Camera interface {
	Acquire(ctx context.Context) (func(), error)
	Capture(ctx context.Context) (face.Sample, error)
}
