package repository

import (
	"errors"
	"fmt"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// ErrStaleStatus is returned when a status-guarded write finds the request in another status.
var ErrStaleStatus = errors.New("schedule request status changed concurrently")

// scopeConditions renders tenant predicates for the given table alias, appending to args.
func scopeConditions(alias string, scope models.TenantScope, args []interface{}) ([]string, []interface{}) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	conditions := []string{fmt.Sprintf("%sschool_id = $%d", prefix, len(args)+1)}
	args = append(args, scope.SchoolID)
	if scope.CampusID != nil {
		conditions = append(conditions, fmt.Sprintf("%scampus_id = $%d", prefix, len(args)+1))
		args = append(args, *scope.CampusID)
	}
	return conditions, args
}

// catalogScopeConditions is scopeConditions for catalog rows, where a campus scope also sees
// school-wide rows without a campus.
func catalogScopeConditions(alias string, scope models.TenantScope, args []interface{}) ([]string, []interface{}) {
	conditions := []string{fmt.Sprintf("%s.school_id = $%d", alias, len(args)+1)}
	args = append(args, scope.SchoolID)
	if scope.CampusID != nil {
		conditions = append(conditions, fmt.Sprintf("(%[1]s.campus_id IS NULL OR %[1]s.campus_id = $%[2]d)", alias, len(args)+1))
		args = append(args, *scope.CampusID)
	}
	return conditions, args
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
