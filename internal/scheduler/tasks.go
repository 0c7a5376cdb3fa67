package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskTourReminder = "tours.reminder"

type TourReminderPayload struct {
	TourID      string `json:"tourId"`
	FranchiseID string `json:"franchiseId"`
}

func NewTourReminderTask(payload TourReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTourReminder, data), nil
}

func ParseTourReminderPayload(task *asynq.Task) (TourReminderPayload, error) {
	var payload TourReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TourReminderPayload{}, err
	}
	return payload, nil
}
