package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeAI            ErrorType = "AI"
	TypeVCS           ErrorType = "VCS"
	TypeGit           ErrorType = "GIT"
	TypeTicket        ErrorType = "TICKET"
	TypeTemplate      ErrorType = "TEMPLATE"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string

	// origin is the error this one was derived from, so errors.Is keeps matching
	// the sentinel after WithError/WithContext/WithSuggestion.
	origin *AppError
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel an error was derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	for o := e.origin; o != nil; o = o.origin {
		if o == t {
			return true
		}
	}
	return false
}

func (e *AppError) derive() *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: e.Suggestion,
		origin:     e,
	}
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	n := e.derive()
	n.Err = err
	return n
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	n := e.derive()
	n.Context = ctx
	return n
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	n := e.derive()
	n.Suggestion = suggestion
	return n
}

// Subtype creates a new sentinel that also matches its parent with errors.Is.
func (e *AppError) Subtype(msg string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    msg,
		Suggestion: e.Suggestion,
		origin:     e,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Git errors
var (
	ErrGetBranch = NewAppError(TypeGit, "Failed to get current branch", nil).
			WithSuggestion("Make sure you are in a git repository: git status")

	ErrNoBranch = NewAppError(TypeGit, "No branch detected", nil).
			WithSuggestion("Create a branch first: git checkout -b <branch-name>")

	ErrGetRepoURL = NewAppError(TypeGit, "Failed to get repository URL", nil).
			WithSuggestion("Add a remote: git remote add origin <url>")

	ErrNotGitRepo = NewAppError(TypeGit, "Not a git repository", nil).
			WithSuggestion("Run matepr from inside your repository")

	ErrExtractRepoInfo = NewAppError(TypeGit, "Failed to extract repository info", nil)

	ErrGetCommits = NewAppError(TypeGit, "Failed to get commits", nil).
			WithSuggestion("Make sure the base branch exists: git branch -a")

	ErrGetDiff = NewAppError(TypeGit, "Failed to get diff", nil).
			WithSuggestion("Make sure the base branch exists and is reachable: git fetch origin")

	ErrGetDiffSummary = NewAppError(TypeGit, "Failed to get diff summary", nil).
				WithSuggestion("Make sure the base branch exists and is reachable: git fetch origin")

	// ErrComparison is returned when the current branch is the base branch.
	ErrComparison = NewAppError(TypeGit, "cannot compare a branch against itself", nil).
			WithSuggestion("Switch to your feature branch or pass a different --base")

	// ErrPartialDiffFetch marks a single file whose isolated diff could not be read.
	// The aggregator absorbs it; it never reaches the caller.
	ErrPartialDiffFetch = NewAppError(TypeGit, "failed to fetch diff for file", nil)
)

// Configuration errors
var (
	ErrConfigMissing = NewAppError(TypeConfiguration, "Configuration is missing", nil).
				WithSuggestion("Initialize configuration: matepr config path")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "Configuration is invalid", nil)

	ErrTokenMissing = NewAppError(TypeConfiguration, "GitHub token is missing", nil).
			WithSuggestion("Set GITHUB_TOKEN or add github.token to the config file")
)

// AI errors
var (
	ErrNoProviderConfigured = NewAppError(TypeAI, "no AI provider configured", nil).
				WithSuggestion("Set ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY or GITHUB_TOKEN")

	ErrUnknownProvider = NewAppError(TypeAI, "unknown AI provider", nil)

	ErrProviderDispatch = NewAppError(TypeAI, "AI provider request failed", nil).
				WithSuggestion("Try again later or use --no-ai to generate from the template only")

	ErrProviderAuth = ErrProviderDispatch.Subtype("AI provider rejected the credentials").
			WithSuggestion("Check the API key configured for the selected provider")

	ErrEmptyResponse = ErrProviderDispatch.Subtype("AI provider returned an empty response")
)

// Ticket errors
var (
	ErrTicketNotFound = NewAppError(TypeTicket, "ticket not found", nil).
				WithSuggestion("Check the ticket key, e.g. PROJ-123")

	ErrTicketAuth = NewAppError(TypeTicket, "not authorized to read the ticket", nil).
			WithSuggestion("Verify jira.email and jira.api_token in the config file")

	ErrTicketFetch = NewAppError(TypeTicket, "failed to fetch ticket", nil)

	ErrNoTicketKey = NewAppError(TypeTicket, "no ticket key found", nil).
			WithSuggestion("Pass --ticket PROJ-123 or include the key in the branch name")
)

// Template errors
var (
	ErrTemplateNotFound = NewAppError(TypeTemplate, "PR template not found", nil)

	ErrTemplateFetch = NewAppError(TypeTemplate, "failed to fetch PR template", nil)

	ErrTemplateFileMissing = NewAppError(TypeTemplate, "PR template file does not exist", nil).
				WithSuggestion("Check the path passed to --template")
)

// VCS errors
var (
	ErrVCSNotSupported = NewAppError(TypeVCS, "VCS provider not supported", nil).
				WithSuggestion("Currently only GitHub is supported")

	ErrCreatePR = NewAppError(TypeVCS, "failed to create pull request", nil).
			WithSuggestion("Check your GitHub token has 'repo' permissions and the branch is pushed")

	ErrListPRs = NewAppError(TypeVCS, "failed to list pull requests", nil)

	ErrGitHubTokenInvalid = NewAppError(TypeVCS, "GitHub token is invalid or expired", nil).
				WithSuggestion("Generate a new token at: https://github.com/settings/tokens")
)
