package summary

import "errors"

var (
	ErrQueueSaturated    = errors.New("summary task queue is saturated")
	ErrWorkerUnavailable = errors.New("summary worker is not running")
	ErrSnapshotFailed    = errors.New("summary snapshot failed")
)
