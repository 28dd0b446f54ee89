package authz

const (
	RoleStudent = 10
	RoleTeacher = 20
)

func IsTeacher(roleID int) bool {
	return roleID == RoleTeacher
}

// RoleFromName — роль из формы регистрации ("student" | "teacher").
func RoleFromName(name string) (int, bool) {
	switch name {
	case "student":
		return RoleStudent, true
	case "teacher":
		return RoleTeacher, true
	}
	return 0, false
}

func RoleName(roleID int) string {
	switch roleID {
	case RoleTeacher:
		return "teacher"
	default:
		return "student"
	}
}
