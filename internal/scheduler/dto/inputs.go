package dto

// TaskGetInput identifies a single task
type TaskGetInput struct {
	TaskID string `path:"task_id" doc:"Task ID"`
}

// TaskHistoryInput requests the recent executions of a task
type TaskHistoryInput struct {
	TaskID string `path:"task_id" doc:"Task ID"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum number of executions to return"`
}

// TaskExecuteInput queues a task for immediate execution
type TaskExecuteInput struct {
	TaskID string `path:"task_id" doc:"Task ID"`
}

// TaskEnableInput enables a task
type TaskEnableInput struct {
	TaskID string `path:"task_id" doc:"Task ID"`
}

// TaskDisableInput disables a task
type TaskDisableInput struct {
	TaskID string `path:"task_id" doc:"Task ID"`
}
