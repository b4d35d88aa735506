package constants

// Outbox topics published to the notification collaborator.
const (
	TopicTaskCreated       = "task.created"
	TopicTaskUpdated       = "task.updated"
	TopicTaskStatusChanged = "task.status_changed"
	TopicTaskAssigned      = "task.assigned"
	TopicTaskDeleted       = "task.deleted"
	TopicTimerStarted      = "timer.started"
	TopicTimerPaused       = "timer.paused"
	TopicTimerStopped      = "timer.stopped"
)
