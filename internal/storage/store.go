package storage

import (
	"context"

	"sctnet/internal/model"
)

// Store persists trained resonators and the simulation runs made with them.
type Store interface {
	Init(ctx context.Context) error
	SaveResonator(ctx context.Context, record model.ResonatorRecord) error
	GetResonator(ctx context.Context, id string) (model.ResonatorRecord, bool, error)
	ListResonators(ctx context.Context) ([]model.ResonatorRecord, error)
	DeleteResonator(ctx context.Context, id string) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, resonatorID string) ([]model.RunRecord, error)
}
