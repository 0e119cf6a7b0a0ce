package domain

// Role is a hierarchically ordered privilege level within a tenant.
type Role string

const (
	RoleNone        Role = ""
	RolePlayer      Role = "player"
	RoleParent      Role = "parent"
	RoleCoach       Role = "academyCoach"
	RoleSubdirector Role = "academySubdirector"
	RoleDirector    Role = "academyDirector"
)

// Permission is an opaque capability identifier granted via the matrix.
type Permission string

const (
	PermViewOwnProfile     Permission = "view_own_profile"
	PermViewTrainings      Permission = "view_trainings"
	PermViewTournaments    Permission = "view_tournaments"
	PermViewPlayerProgress Permission = "view_player_progress"
	PermManageOwnPlayers   Permission = "manage_own_players"
	PermManageTrainings    Permission = "manage_trainings"
	PermRecordAttendance   Permission = "record_attendance"
	PermEvaluatePlayers    Permission = "evaluate_players"
	PermManagePlayers      Permission = "manage_players"
	PermManageTournaments  Permission = "manage_tournaments"
	PermViewReports        Permission = "view_reports"
	PermManageUsers        Permission = "manage_users"
	PermManageAcademy      Permission = "manage_academy"
	PermManageBilling      Permission = "manage_billing"
	PermViewAuditLog       Permission = "view_audit_log"
)

// roleLevels fixes the hierarchy at compile time; higher level = more privilege.
var roleLevels = map[Role]int{
	RolePlayer:      1,
	RoleParent:      2,
	RoleCoach:       3,
	RoleSubdirector: 4,
	RoleDirector:    5,
}

// permissionMatrix enumerates every grant explicitly; there are no
// wildcards and no runtime inheritance between roles.
var permissionMatrix = map[Role][]Permission{
	RolePlayer: {
		PermViewOwnProfile,
		PermViewTrainings,
		PermViewTournaments,
	},
	RoleParent: {
		PermViewOwnProfile,
		PermViewTrainings,
		PermViewTournaments,
		PermViewPlayerProgress,
		PermManageOwnPlayers,
	},
	RoleCoach: {
		PermViewOwnProfile,
		PermViewTrainings,
		PermViewTournaments,
		PermViewPlayerProgress,
		PermManageTrainings,
		PermRecordAttendance,
		PermEvaluatePlayers,
	},
	RoleSubdirector: {
		PermViewOwnProfile,
		PermViewTrainings,
		PermViewTournaments,
		PermViewPlayerProgress,
		PermManageTrainings,
		PermRecordAttendance,
		PermEvaluatePlayers,
		PermManagePlayers,
		PermManageTournaments,
		PermViewReports,
		PermManageUsers,
	},
	RoleDirector: {
		PermViewOwnProfile,
		PermViewTrainings,
		PermViewTournaments,
		PermViewPlayerProgress,
		PermManageTrainings,
		PermRecordAttendance,
		PermEvaluatePlayers,
		PermManagePlayers,
		PermManageTournaments,
		PermViewReports,
		PermManageUsers,
		PermManageAcademy,
		PermManageBilling,
		PermViewAuditLog,
	},
}

// LevelOf returns the hierarchy level for role.
func LevelOf(role Role) (int, error) {
	lvl, ok := roleLevels[role]
	if !ok {
		return 0, &UnknownRoleError{Role: role}
	}
	return lvl, nil
}

// PermissionsOf returns the permissions granted to role. The returned slice
// is a copy; callers may not mutate the matrix.
func PermissionsOf(role Role) []Permission {
	perms, ok := permissionMatrix[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether role's matrix entry contains perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range permissionMatrix[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Outranks reports whether a sits strictly above b in the hierarchy.
// Equal levels never outrank each other; unknown roles outrank nothing.
func Outranks(a, b Role) bool {
	la, oka := roleLevels[a]
	lb, okb := roleLevels[b]
	return oka && okb && la > lb
}

// ValidRole reports whether role exists in the registry.
func ValidRole(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// AllRoles returns every registered role ordered from lowest to highest level.
func AllRoles() []Role {
	return []Role{RolePlayer, RoleParent, RoleCoach, RoleSubdirector, RoleDirector}
}
