package rbac

const (
	PermLessonWrite    = "lesson:write"
	PermQuizWrite      = "quiz:write"
	PermQuizViewAnswer = "quiz:view-answers"
)

// RolePermissions is the default policy. Visitors carry no token and never
// reach the admin routes.
var RolePermissions = map[string][]string{
	"author": {
		PermLessonWrite,
		"quiz:*",
	},
	"admin": {
		"*", // everything
	},
}
