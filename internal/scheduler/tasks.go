// Package scheduler provides deferred work over asynq: debounced
// single-lead re-scores and full batch re-scores after criteria changes.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRescoreLead = "scoring.rescore_lead"

const TaskRescoreBatch = "scoring.rescore_batch"

type RescoreLeadPayload struct {
	LeadID string `json:"leadId"`
}

func NewRescoreLeadTask(payload RescoreLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreLead, data), nil
}

func ParseRescoreLeadPayload(task *asynq.Task) (RescoreLeadPayload, error) {
	var payload RescoreLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreLeadPayload{}, err
	}
	return payload, nil
}

func NewRescoreBatchTask() *asynq.Task {
	return asynq.NewTask(TaskRescoreBatch, nil)
}
