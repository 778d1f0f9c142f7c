// Package taskquery builds the authorization-scoped filter used by every task
// read. The filter is a plain value composed by pure functions; each clause
// carries both a SQL fragment (pushed down to PostgreSQL, never an in-memory
// scan over the table) and an equivalent predicate so composition can be
// tested without a database.
package taskquery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ujjwalcurry30/Task-Tracker/internal/models"
)

// AssignedTo query param shortcuts.
const (
	AssignedToMe         = "me"
	AssignedToUnassigned = "unassigned"
)

type clause struct {
	sql   string // pakai placeholder ?, dinomori ulang di SQL()
	args  []interface{}
	match func(models.Task) bool
}

// Filter is an immutable conjunction of clauses. The zero value matches
// every row; real callers always start from VisibleTo.
type Filter struct {
	clauses []clause
}

func (f Filter) with(c clause) Filter {
	next := make([]clause, len(f.clauses), len(f.clauses)+1)
	copy(next, f.clauses)
	return Filter{clauses: append(next, c)}
}

// VisibleTo is the base visibility clause: a task is visible only to its
// owner or its assignee. The two disjuncts are OR-ed as a unit, then AND-ed
// with whatever else the caller stacks on top.
func VisibleTo(callerID int) Filter {
	return Filter{}.with(clause{
		sql:  "(owner_id = ? OR assigned_to = ?)",
		args: []interface{}{callerID, callerID},
		match: func(t models.Task) bool {
			return t.OwnerID == callerID || (t.AssignedTo != nil && *t.AssignedTo == callerID)
		},
	})
}

// WithStatus restricts to one exact status. When no valid status is
// requested, done tasks are excluded so the default view stays focused on
// actionable work; asking for status=done explicitly lifts that default.
func (f Filter) WithStatus(status string) Filter {
	if models.ValidStatus(status) {
		return f.with(clause{
			sql:   "status = ?",
			args:  []interface{}{status},
			match: func(t models.Task) bool { return t.Status == status },
		})
	}
	return f.with(clause{
		sql:   "status <> ?",
		args:  []interface{}{models.StatusDone},
		match: func(t models.Task) bool { return t.Status != models.StatusDone },
	})
}

// WithAssignment refines by assignee: "me", "unassigned", or a literal user
// id. It only ever narrows the base visibility clause — assignedTo=unassigned
// still returns nothing the caller does not own.
func (f Filter) WithAssignment(assignedTo string, callerID int) Filter {
	switch assignedTo {
	case AssignedToMe:
		return f.assignedTo(callerID)
	case AssignedToUnassigned:
		return f.with(clause{
			sql:   "assigned_to IS NULL",
			match: func(t models.Task) bool { return t.AssignedTo == nil },
		})
	default:
		id, err := strconv.Atoi(assignedTo)
		if err != nil {
			// Literal bukan user id: tidak ada baris yang cocok
			return f.with(clause{
				sql:   "FALSE",
				match: func(models.Task) bool { return false },
			})
		}
		return f.assignedTo(id)
	}
}

func (f Filter) assignedTo(userID int) Filter {
	return f.with(clause{
		sql:   "assigned_to = ?",
		args:  []interface{}{userID},
		match: func(t models.Task) bool { return t.AssignedTo != nil && *t.AssignedTo == userID },
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// WithSearch adds a case-insensitive substring match over title OR
// description. It is AND-ed with the rest of the filter; a search never
// widens what the caller can see.
func (f Filter) WithSearch(term string) Filter {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	lowered := strings.ToLower(term)
	return f.with(clause{
		sql:  "(title ILIKE ? OR description ILIKE ?)",
		args: []interface{}{pattern, pattern},
		match: func(t models.Task) bool {
			return strings.Contains(strings.ToLower(t.Title), lowered) ||
				strings.Contains(strings.ToLower(t.Description), lowered)
		},
	})
}

// Scoped composes the full read filter for one request. Empty params skip
// their clause, except status where absence means the done-exclusion default.
func Scoped(callerID int, status, search, assignedTo string) Filter {
	f := VisibleTo(callerID).WithStatus(status)
	if assignedTo != "" {
		f = f.WithAssignment(assignedTo, callerID)
	}
	if search != "" {
		f = f.WithSearch(search)
	}
	return f
}

// SQL renders the filter as a WHERE clause body with numbered placeholders
// and the matching argument list.
func (f Filter) SQL() (string, []interface{}) {
	if len(f.clauses) == 0 {
		return "TRUE", nil
	}

	var sb strings.Builder
	var args []interface{}
	n := 0
	for i, c := range f.clauses {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		for _, r := range c.sql {
			if r == '?' {
				n++
				fmt.Fprintf(&sb, "$%d", n)
			} else {
				sb.WriteRune(r)
			}
		}
		args = append(args, c.args...)
	}
	return sb.String(), args
}

// Matches evaluates the filter against a task in memory. Semantically
// identical to the SQL rendering; used by tests and the event hub.
func (f Filter) Matches(t models.Task) bool {
	for _, c := range f.clauses {
		if !c.match(t) {
			return false
		}
	}
	return true
}
