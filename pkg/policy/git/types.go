package git

import (
	"time"
)

// CommitInfo contains metadata about a Git commit.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// PullResult contains result of a pull operation.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}

// RepositoryMetrics tracks Git operation metrics.
type RepositoryMetrics struct {
	CloneDuration   time.Duration
	PullDuration    time.Duration
	LastCommitSHA   string
	LastPullTime    time.Time
	FailedPulls     int64
	SuccessfulPulls int64
}

// CommitHistory tracks policy version history.
type CommitHistory struct {
	Current  *CommitInfo   `json:"current"`
	Previous *CommitInfo   `json:"previous,omitempty"`
	History  []*CommitInfo `json:"history"` // Last N commits
}

// AuthConfig selects how Repository authenticates against its remote.
type AuthConfig struct {
	// Type is "token", "ssh", or "none" (default).
	Type             string
	Token            string
	SSHKeyPath       string
	SSHKeyPassphrase string
}

// CloneConfig controls how Repository lays out its local working copy.
type CloneConfig struct {
	// LocalPath is the clone's working directory. Defaults to a
	// directory under os.TempDir() if empty.
	LocalPath string
	// CleanOnStart removes LocalPath before cloning, forcing a fresh
	// checkout instead of reusing one already on disk.
	CleanOnStart bool
	// Depth requests a shallow clone of this many commits; 0 clones
	// full history.
	Depth int
}

// PollConfig bounds one Git network operation (clone or pull).
type PollConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// RepoConfig describes one Git repository Repository manages: its
// remote, tracked branch, optional policy subdirectory, and
// authentication/clone/poll settings.
type RepoConfig struct {
	Repository string
	Branch     string
	// Path is a subdirectory within the repository ListPolicyFiles
	// walks; irrelevant to callers (like pkg/reload/gitsource) that only
	// watch for changed files rather than list policy documents.
	Path  string
	Auth  AuthConfig
	Clone CloneConfig
	Poll  PollConfig
}
