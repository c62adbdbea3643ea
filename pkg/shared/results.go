package shared

// GenericResult is the outcome of one unit of work launched by a command.
type GenericResult struct {
	Args    interface{} `json:"args"`
	Result  interface{} `json:"result"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
}

// GenericLaunchesResult aggregates the outcomes of a command's launches.
type GenericLaunchesResult struct {
	Launches []GenericResult `json:"launches"`
}

// Launch statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)
