package types

// OperationResult reports the outcome of a registry operation
type OperationResult struct {
	Success  bool                   `json:"success"`
	ModuleID string                 `json:"module_id"`
	Error    string                 `json:"error,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Ok builds a success result
func Ok(moduleID string) OperationResult {
	return OperationResult{Success: true, ModuleID: moduleID}
}

// Fail builds a failure result with a reason
func Fail(moduleID, reason string) OperationResult {
	return OperationResult{Success: false, ModuleID: moduleID, Error: reason}
}

// RegisterOptions tune module registration
type RegisterOptions struct {
	AutoEnable          bool                   `json:"auto_enable"`
	SkipDependencyCheck bool                   `json:"skip_dependency_check"`
	Config              map[string]interface{} `json:"config,omitempty"`
}

// Filter narrows module listings. Nil pointer fields mean "don't care";
// Search matches name, description and keywords case-insensitively.
type Filter struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	Installed *bool    `json:"installed,omitempty"`
	Statuses  []Status `json:"statuses,omitempty"`
	Search    string   `json:"search,omitempty"`
	Author    string   `json:"author,omitempty"`
}

// Statistics aggregates registry counts by lifecycle status
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	Enabled  int            `json:"enabled"`
	Errors   int            `json:"errors"`
}
