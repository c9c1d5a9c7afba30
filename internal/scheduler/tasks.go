package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskInviteBatchEmail = "invites.batch.email"

// InviteEmailItem is one email to send within a batch task. Token carries
// the raw accept token; only its hash is persisted.
type InviteEmailItem struct {
	InvitationID     string `json:"invitationId"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	OrganizationName string `json:"organizationName,omitempty"`
	Token            string `json:"token"`
}

type InviteBatchEmailPayload struct {
	BatchID  string            `json:"batchId"`
	TenantID string            `json:"tenantId"`
	Items    []InviteEmailItem `json:"items"`
}

func NewInviteBatchEmailTask(payload InviteBatchEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInviteBatchEmail, data), nil
}

func ParseInviteBatchEmailPayload(task *asynq.Task) (InviteBatchEmailPayload, error) {
	var payload InviteBatchEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InviteBatchEmailPayload{}, err
	}
	return payload, nil
}
