package domain

// Role is a rank in the ordered role progression. Roles are resolved
// deterministically from the merit score; nothing else assigns them.
type Role string

// Roles in ascending order of merit.
const (
	RoleLearner   Role = "learner"
	RoleVolunteer Role = "volunteer"
	RoleMentor    Role = "mentor"
	RoleGuardian  Role = "guardian"
	RoleSage      Role = "sage"
)

// RoleSequence lists all roles from lowest to highest. The ordering is
// load-bearing: the Q-learning advisor indexes its state space by position
// in this slice.
var RoleSequence = []Role{
	RoleLearner,
	RoleVolunteer,
	RoleMentor,
	RoleGuardian,
	RoleSage,
}

// IsValid reports whether the role belongs to the ordered sequence.
func (r Role) IsValid() bool {
	return r.Index() >= 0
}

// Index returns the role's position in RoleSequence, or -1 if unknown.
func (r Role) Index() int {
	for i, role := range RoleSequence {
		if role == r {
			return i
		}
	}
	return -1
}

// Action is a member of the closed action enumeration. Every loggable
// activity on the platform maps to exactly one Action.
type Action string

const (
	ActionCompletingLessons       Action = "completing_lessons"
	ActionHelpingPeers            Action = "helping_peers"
	ActionTeachingSession         Action = "teaching_session"
	ActionDonation                Action = "donation"
	ActionCommunityService        Action = "community_service"
	ActionDisruptingClass         Action = "disrupting_class"
	ActionSpreadingMisinformation Action = "spreading_misinformation"
	ActionPlagiarism              Action = "plagiarism"
	ActionHarassment              Action = "harassment"
	ActionCheat                   Action = "cheat"
)

// ActionSequence lists all actions in a fixed order. The Q-learning advisor
// indexes its action space by position in this slice.
var ActionSequence = []Action{
	ActionCompletingLessons,
	ActionHelpingPeers,
	ActionTeachingSession,
	ActionDonation,
	ActionCommunityService,
	ActionDisruptingClass,
	ActionSpreadingMisinformation,
	ActionPlagiarism,
	ActionHarassment,
	ActionCheat,
}

// IsValid reports whether the action belongs to the closed enumeration.
func (a Action) IsValid() bool {
	return a.Index() >= 0
}

// Index returns the action's position in ActionSequence, or -1 if unknown.
func (a Action) Index() int {
	for i, action := range ActionSequence {
		if action == a {
			return i
		}
	}
	return -1
}

// Severity classifies how harmful an action is. It keys tiered balances,
// atonement requirement vectors, and debt multipliers.
type Severity string

const (
	SeverityMinor  Severity = "minor"
	SeverityMedium Severity = "medium"
	SeverityMajor  Severity = "major"
)

// Severities lists all severity classes from least to most harmful.
var Severities = []Severity{SeverityMinor, SeverityMedium, SeverityMajor}

// IsValid reports whether the severity is a known class.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityMedium, SeverityMajor:
		return true
	default:
		return false
	}
}

// TokenName identifies a named unit of accrued merit or harm.
type TokenName string

const (
	// TokenDharma is the primary positive-merit token.
	TokenDharma TokenName = "dharma_points"

	// TokenSeva rewards service to other actors.
	TokenSeva TokenName = "seva_points"

	// TokenPunya rewards charitable acts and decays slowly.
	TokenPunya TokenName = "punya_points"

	// TokenPaap is the tiered negative-merit token; balances are kept per
	// severity class.
	TokenPaap TokenName = "paap_points"
)
