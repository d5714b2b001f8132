package scheduler

// taskTable maps a capability tag to the tasks it contributes. Capabilities
// without an entry contribute nothing.
var taskTable = map[string][]string{
	"code_generation": {
		"Generate high-value software solutions",
		"Create automated trading algorithms",
	},
	"multi_agent_conversation": {
		"Coordinate sales team activities",
		"Manage customer service automation",
	},
	"autonomous_data_labeling": {
		"Process high-value datasets for clients",
		"Create training data for ML models",
	},
	"task_creation": {
		"Generate profitable task sequences",
		"Optimize workflow automation",
	},
	"role_based_agents": {
		"Deploy specialized revenue teams",
		"Scale successful agent configurations",
	},
}

// DeriveTasks concatenates the table entries for caps in order. Duplicates
// are kept. The result is a fresh slice.
func DeriveTasks(caps []string) []string {
	tasks := []string{}
	for _, c := range caps {
		tasks = append(tasks, taskTable[c]...)
	}
	return tasks
}

// HasTasks reports whether capability c contributes any task.
func HasTasks(c string) bool {
	_, ok := taskTable[c]
	return ok
}
