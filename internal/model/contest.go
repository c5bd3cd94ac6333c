package model

import "time"

// Train types supported by the platform.
const (
	TrainTrapShoot  = "trap_shoot"
	TrainSkeetShoot = "skeet_shoot"
)

// ValidTrainType reports whether t names a known training discipline.
func ValidTrainType(t string) bool {
	return t == TrainTrapShoot || t == TrainSkeetShoot
}

// Contest lifecycle states.
const (
	ContestInit     = "init"
	ContestStopped  = "stopped"
	ContestRunning  = "running"
	ContestRestart  = "restart"
	ContestFinished = "finished"
	ContestCancel   = "cancel"
)

// Video describes a recording attached to a contest.  Only metadata is
// stored; the media itself lives behind the URL.
type Video struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedTime time.Time `json:"created_time"`
}

// Metric describes a single measured quantity of a contest run.
type Metric struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

// Athlete is the snapshot of a user embedded into a contest at creation
// time.  Snapshotting keeps contest listings self-contained: renaming a
// user later does not rewrite history.
type Athlete struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Contest represents a row in the `contests` table.  Metrics and Videos
// are stored as JSON columns and may be nil.
type Contest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	TrainType   string            `json:"train_type"`
	Status      string            `json:"status"`
	Athlete     Athlete           `json:"athlete"`
	Metrics     map[string]Metric `json:"metrics,omitempty"`
	Videos      []Video           `json:"videos,omitempty"`
	CreatedAt   time.Time         `json:"created_time"`
}
