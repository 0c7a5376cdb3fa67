// Package domain defines task types and statuses.
package domain

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	TypeCall   = "call"
	TypeEmail  = "email"
	TypeText   = "text"
	TypeReview = "review"
	TypeOther  = "other"
)

// Types lists the accepted task types.
var Types = []string{TypeCall, TypeEmail, TypeText, TypeReview, TypeOther}

// NormalizeType maps unknown or empty types to TypeOther.
func NormalizeType(t string) string {
	for _, known := range Types {
		if t == known {
			return t
		}
	}
	return TypeOther
}
