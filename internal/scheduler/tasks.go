// Package scheduler runs background scoring work on asynq.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRescoreAll = "scoring:rescore_all"

// RescoreAllPayload selects the leads a rescore run walks. An empty
// CompanyID means every tenant.
type RescoreAllPayload struct {
	CompanyID    string `json:"companyId,omitempty"`
	OnlyUnscored bool   `json:"onlyUnscored"`
	PageSize     int    `json:"pageSize"`
	Offset       int    `json:"offset"`
}

func NewRescoreAllTask(payload RescoreAllPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreAll, data), nil
}

func ParseRescoreAllPayload(task *asynq.Task) (RescoreAllPayload, error) {
	var payload RescoreAllPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreAllPayload{}, err
	}
	return payload, nil
}
