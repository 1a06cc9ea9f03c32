package models

import "time"

// ReindexType distinguishes a full rebuild from an incremental pass.
type ReindexType string

const (
	ReindexFull        ReindexType = "full"
	ReindexIncremental ReindexType = "incremental"
)

// ReindexStatus is the singleton run-progress document written to
// reindex.status.json. One writer (the worker), many readers (UI clients
// polling the file); atomic replacement is the only synchronization.
type ReindexStatus struct {
	IsRunning        bool        `json:"isRunning"`
	RunID            string      `json:"runId,omitempty"`
	ReindexType      ReindexType `json:"reindexType,omitempty"`
	StartTime        *time.Time  `json:"startTime,omitempty"`
	EndTime          *time.Time  `json:"endTime,omitempty"`
	ProcessedOrders  int         `json:"processedOrders"`
	TotalOrders      int         `json:"totalOrders"`
	CurrentOrder     *string     `json:"currentOrder,omitempty"`
	Error            *string     `json:"error,omitempty"`
	LastCompletedRun *time.Time  `json:"lastCompletedRun,omitempty"`
}
